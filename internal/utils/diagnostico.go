package utils

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Severidade classifica um diagnóstico
type Severidade int

const (
	SeveridadeErro Severidade = iota
	SeveridadeAviso
)

// String retorna uma representação em string da severidade
func (s Severidade) String() string {
	if s == SeveridadeAviso {
		return "aviso"
	}
	return "erro"
}

// TipoDiagnostico enumera os tipos fechados de diagnóstico do pipeline
type TipoDiagnostico int

const (
	// Léxicos
	UnknownCharacter TipoDiagnostico = iota
	UnterminatedString

	// Sintáticos
	UnexpectedToken
	ExpectedToken
	MissingMain
	StatementOutsideProcedure

	// Semânticos
	UnknownIdentifier
	DuplicateDeclaration
	TypeMismatch
	ArgumentCountMismatch
	ArgumentTypeMismatch
	OutOfLoopControl
	ReturnTypeMismatch
	CallOfVoidInValuePosition
	InvalidPrintFormat

	// Avisos semânticos
	UnusedVariable
	UnusedProcedure
	Unreachable
)

var nomesDiagnostico = map[TipoDiagnostico]string{
	UnknownCharacter:          "UnknownCharacter",
	UnterminatedString:        "UnterminatedString",
	UnexpectedToken:           "UnexpectedToken",
	ExpectedToken:             "ExpectedToken",
	MissingMain:               "MissingMain",
	StatementOutsideProcedure: "StatementOutsideProcedure",
	UnknownIdentifier:         "UnknownIdentifier",
	DuplicateDeclaration:      "DuplicateDeclaration",
	TypeMismatch:              "TypeMismatch",
	ArgumentCountMismatch:     "ArgumentCountMismatch",
	ArgumentTypeMismatch:      "ArgumentTypeMismatch",
	OutOfLoopControl:          "OutOfLoopControl",
	ReturnTypeMismatch:        "ReturnTypeMismatch",
	CallOfVoidInValuePosition: "CallOfVoidInValuePosition",
	InvalidPrintFormat:        "InvalidPrintFormat",
	UnusedVariable:            "UnusedVariable",
	UnusedProcedure:           "UnusedProcedure",
	Unreachable:               "Unreachable",
}

// String retorna o nome do tipo de diagnóstico
func (t TipoDiagnostico) String() string {
	if nome, ok := nomesDiagnostico[t]; ok {
		return nome
	}
	return "Desconhecido"
}

// Diagnostico registra um erro ou aviso com posição no fonte
type Diagnostico struct {
	Severidade Severidade
	Tipo       TipoDiagnostico
	Mensagem   string
	Linha      int
	Coluna     int
}

// NovoDiagnostico cria um diagnóstico de erro
func NovoDiagnostico(tipo TipoDiagnostico, mensagem string, linha, coluna int) Diagnostico {
	return Diagnostico{
		Severidade: SeveridadeErro,
		Tipo:       tipo,
		Mensagem:   mensagem,
		Linha:      linha,
		Coluna:     coluna,
	}
}

// NovoAviso cria um diagnóstico de aviso
func NovoAviso(tipo TipoDiagnostico, mensagem string, linha, coluna int) Diagnostico {
	return Diagnostico{
		Severidade: SeveridadeAviso,
		Tipo:       tipo,
		Mensagem:   mensagem,
		Linha:      linha,
		Coluna:     coluna,
	}
}

// String retorna uma representação em string do diagnóstico
func (d Diagnostico) String() string {
	if d.Linha > 0 {
		return fmt.Sprintf("%s [%s]: %s em linha %d, coluna %d", d.Severidade, d.Tipo, d.Mensagem, d.Linha, d.Coluna)
	}
	return fmt.Sprintf("%s [%s]: %s", d.Severidade, d.Tipo, d.Mensagem)
}

// Diagnosticos é a coleção acumulada por um estágio do pipeline
type Diagnosticos []Diagnostico

// TemErros verifica se a coleção contém algum erro
func (ds Diagnosticos) TemErros() bool {
	for _, d := range ds {
		if d.Severidade == SeveridadeErro {
			return true
		}
	}
	return false
}

// Erros conta os diagnósticos de severidade erro
func (ds Diagnosticos) Erros() int {
	total := 0
	for _, d := range ds {
		if d.Severidade == SeveridadeErro {
			total++
		}
	}
	return total
}

// Reportar imprime todos os diagnósticos, erros em vermelho e avisos
// em amarelo
func (ds Diagnosticos) Reportar(saida io.Writer) {
	for _, d := range ds {
		if d.Severidade == SeveridadeErro {
			fmt.Fprintln(saida, color.RedString("%s", d))
		} else {
			fmt.Fprintln(saida, color.YellowString("%s", d))
		}
	}
}
