package semantic

import (
	"fmt"
	"strings"

	"github.com/khevencolino/Ziget/internal/lexer"
	"github.com/khevencolino/Ziget/internal/parser"
)

// Simbolo representa uma entidade declarada: variável, parâmetro ou
// procedimento
type Simbolo struct {
	Nome            string
	EProcedimento   bool
	Tipo            parser.Tipo   // tipo da variável ou tipo de retorno
	TiposParametros []parser.Tipo // apenas para procedimentos
	DeclaradoEm     lexer.Position
	Usado           bool
}

// String retorna o símbolo no formato do artefato `-symbol_tables.txt`
func (s *Simbolo) String() string {
	uso := "não usado"
	if s.Usado {
		uso = "usado"
	}
	if s.EProcedimento {
		parametros := make([]string, len(s.TiposParametros))
		for i, tipo := range s.TiposParametros {
			parametros[i] = tipo.String()
		}
		return fmt.Sprintf("%s: procedure(%s) -> %s [%s]", s.Nome, strings.Join(parametros, ", "), s.Tipo, uso)
	}
	return fmt.Sprintf("%s: %s [%s]", s.Nome, s.Tipo, uso)
}

// Escopo mapeia identificadores para símbolos preservando a ordem de
// inserção, exigida pelos artefatos e pela materialização de
// parâmetros da esquerda para a direita
type Escopo struct {
	Nome     string
	nomes    []string
	simbolos map[string]*Simbolo
}

// NovoEscopo cria um escopo vazio
func NovoEscopo(nome string) *Escopo {
	return &Escopo{
		Nome:     nome,
		simbolos: make(map[string]*Simbolo),
	}
}

// Declarar insere um símbolo; retorna false quando o nome já foi
// declarado neste escopo
func (e *Escopo) Declarar(simbolo *Simbolo) bool {
	if _, existe := e.simbolos[simbolo.Nome]; existe {
		return false
	}
	e.nomes = append(e.nomes, simbolo.Nome)
	e.simbolos[simbolo.Nome] = simbolo
	return true
}

// Buscar procura um símbolo apenas neste escopo
func (e *Escopo) Buscar(nome string) (*Simbolo, bool) {
	simbolo, ok := e.simbolos[nome]
	return simbolo, ok
}

// Simbolos retorna os símbolos na ordem de inserção
func (e *Escopo) Simbolos() []*Simbolo {
	resultado := make([]*Simbolo, 0, len(e.nomes))
	for _, nome := range e.nomes {
		resultado = append(resultado, e.simbolos[nome])
	}
	return resultado
}

// TabelaSimbolos é a pilha de escopos aninhados. A resolução percorre
// do escopo mais interno para o mais externo.
type TabelaSimbolos struct {
	escopos []*Escopo
}

// NovaTabelaSimbolos cria uma tabela vazia
func NovaTabelaSimbolos() *TabelaSimbolos {
	return &TabelaSimbolos{}
}

// EmpilharEscopo abre um novo escopo aninhado
func (t *TabelaSimbolos) EmpilharEscopo(nome string) *Escopo {
	escopo := NovoEscopo(nome)
	t.escopos = append(t.escopos, escopo)
	return escopo
}

// DesempilharEscopo fecha o escopo mais interno e o retorna
func (t *TabelaSimbolos) DesempilharEscopo() *Escopo {
	if len(t.escopos) == 0 {
		return nil
	}
	topo := t.escopos[len(t.escopos)-1]
	t.escopos = t.escopos[:len(t.escopos)-1]
	return topo
}

// Declarar insere um símbolo no escopo mais interno
func (t *TabelaSimbolos) Declarar(simbolo *Simbolo) bool {
	return t.escopos[len(t.escopos)-1].Declarar(simbolo)
}

// Resolver procura um símbolo do escopo mais interno para o mais
// externo
func (t *TabelaSimbolos) Resolver(nome string) (*Simbolo, bool) {
	for i := len(t.escopos) - 1; i >= 0; i-- {
		if simbolo, ok := t.escopos[i].Buscar(nome); ok {
			return simbolo, true
		}
	}
	return nil, false
}

// MarcarUsado marca como usado o símbolo visível com o nome dado
func (t *TabelaSimbolos) MarcarUsado(nome string) {
	if simbolo, ok := t.Resolver(nome); ok {
		simbolo.Usado = true
	}
}
