package parser

import (
	"fmt"
	"strconv"

	"github.com/khevencolino/Ziget/internal/lexer"
)

// Tipo representa o conjunto fechado de tipos da linguagem
type Tipo int

const (
	TipoNumero Tipo = iota
	TipoBooleano
	TipoTexto
	TipoVazio
	// TipoErro é a sentinela propagada depois de um erro reportado,
	// para não gerar diagnósticos em cascata na mesma subárvore
	TipoErro
)

// String retorna o nome do tipo como aparece na linguagem
func (t Tipo) String() string {
	switch t {
	case TipoNumero:
		return "number"
	case TipoBooleano:
		return "boolean"
	case TipoTexto:
		return "string"
	case TipoVazio:
		return "void"
	default:
		return "error"
	}
}

// TipoOperador representa os operadores binários e unários
type TipoOperador int

const (
	ADICAO TipoOperador = iota
	SUBTRACAO
	MULTIPLICACAO
	DIVISAO
	MODULO
	IGUALDADE   // is
	DIFERENCA   // isnt
	CONJUNCAO   // and
	DISJUNCAO   // or
	MENOR_QUE   // <
	MAIOR_QUE   // >
	MENOR_IGUAL // <=
	MAIOR_IGUAL // >=
)

// String retorna o operador como aparece no código fonte
func (t TipoOperador) String() string {
	switch t {
	case ADICAO:
		return "+"
	case SUBTRACAO:
		return "-"
	case MULTIPLICACAO:
		return "*"
	case DIVISAO:
		return "/"
	case MODULO:
		return "%"
	case IGUALDADE:
		return "is"
	case DIFERENCA:
		return "isnt"
	case CONJUNCAO:
		return "and"
	case DISJUNCAO:
		return "or"
	case MENOR_QUE:
		return "<"
	case MAIOR_QUE:
		return ">"
	case MENOR_IGUAL:
		return "<="
	case MAIOR_IGUAL:
		return ">="
	default:
		return "?"
	}
}

// Programa é a raiz da árvore sintática
type Programa struct {
	Procedimentos []*DeclaracaoProcedimento
	// Principal fica nulo quando o fonte não declara `main`; o parser
	// já reportou MissingMain nesse caso
	Principal *ProcedimentoPrincipal
}

// DeclaracaoProcedimento representa um procedimento nomeado
type DeclaracaoProcedimento struct {
	Nome        string
	Parametros  []Parametro
	TipoRetorno Tipo
	Corpo       *Bloco
	Token       lexer.Token
}

// ProcedimentoPrincipal é o ponto de entrada do programa
type ProcedimentoPrincipal struct {
	Corpo *Bloco
	Token lexer.Token
}

// Parametro representa um parâmetro formal de procedimento
type Parametro struct {
	Nome          string
	TipoParametro Tipo
	Token         lexer.Token
}

// Bloco agrupa uma sequência de comandos entre chaves
type Bloco struct {
	Comandos []Comando
}

// Comando é a interface base de todos os comandos
type Comando interface {
	comandoNode()
}

// DeclaracaoVariavel representa `define nome [-> tipo] := expr;`
type DeclaracaoVariavel struct {
	Nome string
	// TipoDeclarado fica nulo quando o tipo é inferido do inicializador
	TipoDeclarado *Tipo
	Inicializador Expressao
	Token         lexer.Token
}

// Atribuicao representa `nome := expr;`
type Atribuicao struct {
	Nome  string
	Valor Expressao
	Token lexer.Token
}

// Condicional representa `when expr { } [otherwise { }]`
type Condicional struct {
	Condicao     Expressao
	Consequencia *Bloco
	Alternativa  *Bloco
	Token        lexer.Token
}

// Laco representa `loop { }`
type Laco struct {
	Corpo *Bloco
	Token lexer.Token
}

// ComandoSair representa `leave;`
type ComandoSair struct {
	Token lexer.Token
}

// ComandoRepetir representa `repeat;`
type ComandoRepetir struct {
	Token lexer.Token
}

// Retorno representa `yield [expr];`
type Retorno struct {
	// Valor fica nulo em procedimentos void
	Valor Expressao
	Token lexer.Token
}

// ComandoExpressao representa uma expressão em posição de comando
type ComandoExpressao struct {
	Expr Expressao
}

func (*DeclaracaoVariavel) comandoNode() {}
func (*Atribuicao) comandoNode()         {}
func (*Condicional) comandoNode()        {}
func (*Laco) comandoNode()               {}
func (*ComandoSair) comandoNode()        {}
func (*ComandoRepetir) comandoNode()     {}
func (*Retorno) comandoNode()            {}
func (*ComandoExpressao) comandoNode()   {}

// Expressao é a interface base de todos os nós de expressão. O tipo
// anotado é preenchido pelo analisador semântico.
type Expressao interface {
	TipoAnotado() Tipo
	String() string
	exprNode()
}

// Literal representa um literal de número, booleano ou texto.
// O campo Tipo discrimina qual dos valores vale.
type Literal struct {
	Numero   float64
	Booleano bool
	Texto    string
	Tipo     Tipo
	Token    lexer.Token
}

// Variavel representa o uso de uma variável
type Variavel struct {
	Nome  string
	Tipo  Tipo
	Token lexer.Token
}

// OperacaoUnaria representa a negação aritmética
type OperacaoUnaria struct {
	Operador TipoOperador
	Operando Expressao
	Tipo     Tipo
	Token    lexer.Token
}

// OperacaoBinaria representa uma operação binária
type OperacaoBinaria struct {
	Esquerda Expressao
	Operador TipoOperador
	Direita  Expressao
	Tipo     Tipo
	Token    lexer.Token
}

// ChamadaProcedimento representa `nome(args...)`. Para o intrínseco
// `print`, FormatoPrint guarda a string de formato C sintetizada pelo
// analisador semântico.
type ChamadaProcedimento struct {
	Nome         string
	Argumentos   []Expressao
	Tipo         Tipo
	FormatoPrint string
	Token        lexer.Token
}

func (l *Literal) TipoAnotado() Tipo             { return l.Tipo }
func (v *Variavel) TipoAnotado() Tipo            { return v.Tipo }
func (o *OperacaoUnaria) TipoAnotado() Tipo      { return o.Tipo }
func (o *OperacaoBinaria) TipoAnotado() Tipo     { return o.Tipo }
func (c *ChamadaProcedimento) TipoAnotado() Tipo { return c.Tipo }

func (*Literal) exprNode()             {}
func (*Variavel) exprNode()            {}
func (*OperacaoUnaria) exprNode()      {}
func (*OperacaoBinaria) exprNode()     {}
func (*ChamadaProcedimento) exprNode() {}

// String retorna a representação em string do literal
func (l *Literal) String() string {
	switch l.Tipo {
	case TipoNumero:
		return strconv.FormatFloat(l.Numero, 'g', -1, 64)
	case TipoBooleano:
		if l.Booleano {
			return "yes"
		}
		return "no"
	default:
		return strconv.Quote(l.Texto)
	}
}

// String retorna o nome da variável
func (v *Variavel) String() string {
	return v.Nome
}

// String retorna a representação em string da operação
func (o *OperacaoUnaria) String() string {
	return fmt.Sprintf("(%s%s)", o.Operador, o.Operando)
}

// String retorna a representação em string da operação
func (o *OperacaoBinaria) String() string {
	return fmt.Sprintf("(%s %s %s)", o.Esquerda, o.Operador, o.Direita)
}

// String retorna a representação em string da chamada
func (c *ChamadaProcedimento) String() string {
	argumentos := ""
	for i, argumento := range c.Argumentos {
		if i > 0 {
			argumentos += ", "
		}
		argumentos += argumento.String()
	}
	return fmt.Sprintf("%s(%s)", c.Nome, argumentos)
}
