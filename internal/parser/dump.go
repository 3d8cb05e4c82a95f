package parser

import (
	"fmt"
	"strings"
)

// DumpArvore devolve a árvore sintática em formato indentado, um nó por
// linha, espelhando a estrutura dos nós. A saída é função pura da
// árvore: descarregar duas vezes produz o mesmo texto.
func DumpArvore(programa *Programa) string {
	var builder strings.Builder
	builder.WriteString("Programa\n")
	for _, procedimento := range programa.Procedimentos {
		dumpProcedimento(&builder, procedimento, 1)
	}
	if programa.Principal != nil {
		escreverLinha(&builder, 1, "ProcedimentoPrincipal main")
		dumpBloco(&builder, programa.Principal.Corpo, 2)
	}
	return builder.String()
}

func dumpProcedimento(builder *strings.Builder, procedimento *DeclaracaoProcedimento, nivel int) {
	escreverLinha(builder, nivel, "Procedimento %s -> %s", procedimento.Nome, procedimento.TipoRetorno)
	for _, parametro := range procedimento.Parametros {
		escreverLinha(builder, nivel+1, "Parametro %s -> %s", parametro.Nome, parametro.TipoParametro)
	}
	dumpBloco(builder, procedimento.Corpo, nivel+1)
}

func dumpBloco(builder *strings.Builder, bloco *Bloco, nivel int) {
	escreverLinha(builder, nivel, "Bloco")
	for _, comando := range bloco.Comandos {
		dumpComando(builder, comando, nivel+1)
	}
}

func dumpComando(builder *strings.Builder, comando Comando, nivel int) {
	switch c := comando.(type) {
	case *DeclaracaoVariavel:
		if c.TipoDeclarado != nil {
			escreverLinha(builder, nivel, "DeclaracaoVariavel %s -> %s", c.Nome, *c.TipoDeclarado)
		} else {
			escreverLinha(builder, nivel, "DeclaracaoVariavel %s", c.Nome)
		}
		dumpExpressao(builder, c.Inicializador, nivel+1)

	case *Atribuicao:
		escreverLinha(builder, nivel, "Atribuicao %s", c.Nome)
		dumpExpressao(builder, c.Valor, nivel+1)

	case *Condicional:
		escreverLinha(builder, nivel, "Condicional")
		escreverLinha(builder, nivel+1, "Condicao")
		dumpExpressao(builder, c.Condicao, nivel+2)
		dumpBloco(builder, c.Consequencia, nivel+1)
		if c.Alternativa != nil {
			escreverLinha(builder, nivel+1, "Alternativa")
			dumpBloco(builder, c.Alternativa, nivel+2)
		}

	case *Laco:
		escreverLinha(builder, nivel, "Laco")
		dumpBloco(builder, c.Corpo, nivel+1)

	case *ComandoSair:
		escreverLinha(builder, nivel, "Sair")

	case *ComandoRepetir:
		escreverLinha(builder, nivel, "Repetir")

	case *Retorno:
		escreverLinha(builder, nivel, "Retorno")
		if c.Valor != nil {
			dumpExpressao(builder, c.Valor, nivel+1)
		}

	case *ComandoExpressao:
		escreverLinha(builder, nivel, "ComandoExpressao")
		dumpExpressao(builder, c.Expr, nivel+1)
	}
}

func dumpExpressao(builder *strings.Builder, expressao Expressao, nivel int) {
	switch e := expressao.(type) {
	case *Literal:
		escreverLinha(builder, nivel, "Literal %s", e)

	case *Variavel:
		escreverLinha(builder, nivel, "Variavel %s", e.Nome)

	case *OperacaoUnaria:
		escreverLinha(builder, nivel, "OperacaoUnaria %s", e.Operador)
		dumpExpressao(builder, e.Operando, nivel+1)

	case *OperacaoBinaria:
		escreverLinha(builder, nivel, "OperacaoBinaria %s", e.Operador)
		dumpExpressao(builder, e.Esquerda, nivel+1)
		dumpExpressao(builder, e.Direita, nivel+1)

	case *ChamadaProcedimento:
		escreverLinha(builder, nivel, "ChamadaProcedimento %s", e.Nome)
		for _, argumento := range e.Argumentos {
			dumpExpressao(builder, argumento, nivel+1)
		}
	}
}

func escreverLinha(builder *strings.Builder, nivel int, formato string, args ...interface{}) {
	builder.WriteString(strings.Repeat("  ", nivel))
	fmt.Fprintf(builder, formato, args...)
	builder.WriteByte('\n')
}
