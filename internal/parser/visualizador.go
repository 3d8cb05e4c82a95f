package parser

import (
	"fmt"

	"github.com/m1gwings/treedrawer/tree"
)

// VisualizadorArvore desenha a árvore sintática no console
type VisualizadorArvore struct{}

// NovoVisualizador cria um novo visualizador
func NovoVisualizador() *VisualizadorArvore {
	return &VisualizadorArvore{}
}

// ImprimirArvore desenha cada procedimento do programa como uma árvore
func (v *VisualizadorArvore) ImprimirArvore(programa *Programa) {
	fmt.Println("=== Árvore Sintática ===")
	raiz := tree.NewTree(tree.NodeString("Programa"))
	for _, procedimento := range programa.Procedimentos {
		no := raiz.AddChild(tree.NodeString(fmt.Sprintf("procedure %s", procedimento.Nome)))
		v.adicionarBloco(no, procedimento.Corpo)
	}
	if programa.Principal != nil {
		no := raiz.AddChild(tree.NodeString("procedure main"))
		v.adicionarBloco(no, programa.Principal.Corpo)
	}
	fmt.Println(raiz)
	fmt.Println()
}

// adicionarBloco adiciona os comandos de um bloco como filhos do nó
func (v *VisualizadorArvore) adicionarBloco(pai *tree.Tree, bloco *Bloco) {
	for _, comando := range bloco.Comandos {
		v.adicionarComando(pai, comando)
	}
}

func (v *VisualizadorArvore) adicionarComando(pai *tree.Tree, comando Comando) {
	switch c := comando.(type) {
	case *DeclaracaoVariavel:
		no := pai.AddChild(tree.NodeString(fmt.Sprintf("define %s", c.Nome)))
		v.adicionarExpressao(no, c.Inicializador)

	case *Atribuicao:
		no := pai.AddChild(tree.NodeString(fmt.Sprintf("%s :=", c.Nome)))
		v.adicionarExpressao(no, c.Valor)

	case *Condicional:
		no := pai.AddChild(tree.NodeString("when"))
		v.adicionarExpressao(no, c.Condicao)
		consequencia := no.AddChild(tree.NodeString("então"))
		v.adicionarBloco(consequencia, c.Consequencia)
		if c.Alternativa != nil {
			alternativa := no.AddChild(tree.NodeString("otherwise"))
			v.adicionarBloco(alternativa, c.Alternativa)
		}

	case *Laco:
		no := pai.AddChild(tree.NodeString("loop"))
		v.adicionarBloco(no, c.Corpo)

	case *ComandoSair:
		pai.AddChild(tree.NodeString("leave"))

	case *ComandoRepetir:
		pai.AddChild(tree.NodeString("repeat"))

	case *Retorno:
		no := pai.AddChild(tree.NodeString("yield"))
		if c.Valor != nil {
			v.adicionarExpressao(no, c.Valor)
		}

	case *ComandoExpressao:
		v.adicionarExpressao(pai, c.Expr)
	}
}

func (v *VisualizadorArvore) adicionarExpressao(pai *tree.Tree, expressao Expressao) {
	switch e := expressao.(type) {
	case *Literal:
		pai.AddChild(tree.NodeString(e.String()))

	case *Variavel:
		pai.AddChild(tree.NodeString(e.Nome))

	case *OperacaoUnaria:
		no := pai.AddChild(tree.NodeString(e.Operador.String()))
		v.adicionarExpressao(no, e.Operando)

	case *OperacaoBinaria:
		no := pai.AddChild(tree.NodeString(e.Operador.String()))
		v.adicionarExpressao(no, e.Esquerda)
		v.adicionarExpressao(no, e.Direita)

	case *ChamadaProcedimento:
		no := pai.AddChild(tree.NodeString(fmt.Sprintf("%s()", e.Nome)))
		for _, argumento := range e.Argumentos {
			v.adicionarExpressao(no, argumento)
		}
	}
}
