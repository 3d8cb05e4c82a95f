package semantic

import (
	"fmt"
	"strings"

	"github.com/khevencolino/Ziget/internal/lexer"
	"github.com/khevencolino/Ziget/internal/parser"
	"github.com/khevencolino/Ziget/internal/registry"
	"github.com/khevencolino/Ziget/internal/utils"
)

// Analisador percorre a árvore validando declarações, tipos, contexto
// de laço e assinaturas, anotando o tipo inferido em cada expressão.
// Subárvores com erro já reportado recebem a sentinela TipoErro e não
// geram novos diagnósticos.
type Analisador struct {
	tabela           *TabelaSimbolos
	diagnosticos     utils.Diagnosticos
	dentroLaco       int
	tipoRetornoAtual parser.Tipo

	// registros acumula instantâneos dos escopos fechados para o
	// artefato `-symbol_tables.txt`
	registros         []registroEscopo
	procedimentoAtual string
}

type registroEscopo struct {
	procedimento string
	escopo       *Escopo
}

// NovoAnalisador cria um novo analisador semântico
func NovoAnalisador() *Analisador {
	return &Analisador{
		tabela: NovaTabelaSimbolos(),
	}
}

// Analisar valida o programa inteiro e retorna os diagnósticos
// acumulados. A primeira passada registra todas as assinaturas de
// procedimento no escopo global, permitindo referências adiantadas e
// recursão mútua; a segunda analisa cada corpo.
func (a *Analisador) Analisar(programa *parser.Programa) utils.Diagnosticos {
	a.tabela.EmpilharEscopo("global")

	for _, procedimento := range programa.Procedimentos {
		a.declararProcedimento(procedimento)
	}

	for _, procedimento := range programa.Procedimentos {
		a.analisarProcedimento(procedimento)
	}

	if programa.Principal != nil {
		a.procedimentoAtual = "main"
		a.tipoRetornoAtual = parser.TipoVazio
		a.tabela.EmpilharEscopo("main")
		a.analisarBloco(programa.Principal.Corpo)
		a.fecharEscopo()
	}

	a.procedimentoAtual = "global"
	a.fecharEscopo()

	return a.diagnosticos
}

// declararProcedimento insere a assinatura no escopo global
func (a *Analisador) declararProcedimento(procedimento *parser.DeclaracaoProcedimento) {
	tiposParametros := make([]parser.Tipo, len(procedimento.Parametros))
	for i, parametro := range procedimento.Parametros {
		tiposParametros[i] = parametro.TipoParametro
	}

	simbolo := &Simbolo{
		Nome:            procedimento.Nome,
		EProcedimento:   true,
		Tipo:            procedimento.TipoRetorno,
		TiposParametros: tiposParametros,
		DeclaradoEm:     procedimento.Token.Position,
	}
	if !a.tabela.Declarar(simbolo) {
		a.erro(utils.DuplicateDeclaration,
			fmt.Sprintf("procedimento '%s' já declarado", procedimento.Nome), procedimento.Token)
	}
}

// analisarProcedimento analisa o corpo de um procedimento com os
// parâmetros no escopo externo do corpo
func (a *Analisador) analisarProcedimento(procedimento *parser.DeclaracaoProcedimento) {
	a.procedimentoAtual = procedimento.Nome
	a.tipoRetornoAtual = procedimento.TipoRetorno

	a.tabela.EmpilharEscopo(procedimento.Nome)
	for _, parametro := range procedimento.Parametros {
		simbolo := &Simbolo{
			Nome:        parametro.Nome,
			Tipo:        parametro.TipoParametro,
			DeclaradoEm: parametro.Token.Position,
		}
		if !a.tabela.Declarar(simbolo) {
			a.erro(utils.DuplicateDeclaration,
				fmt.Sprintf("parâmetro '%s' já declarado", parametro.Nome), parametro.Token)
		}
	}

	a.analisarBloco(procedimento.Corpo)
	a.fecharEscopo()
}

// analisarBloco abre um escopo aninhado e verifica alcançabilidade dos
// comandos do bloco
func (a *Analisador) analisarBloco(bloco *parser.Bloco) {
	a.tabela.EmpilharEscopo("bloco")

	alcancavel := true
	for _, comando := range bloco.Comandos {
		if !alcancavel {
			a.aviso(utils.Unreachable, "código inalcançável", tokenComando(comando))
			alcancavel = true // um aviso por sequência inalcançável
		}
		a.analisarComando(comando)

		switch comando.(type) {
		case *parser.Retorno, *parser.ComandoSair, *parser.ComandoRepetir:
			alcancavel = false
		}
	}

	a.fecharEscopo()
}

// analisarComando despacha a verificação do comando
func (a *Analisador) analisarComando(comando parser.Comando) {
	switch c := comando.(type) {
	case *parser.DeclaracaoVariavel:
		a.analisarDeclaracaoVariavel(c)
	case *parser.Atribuicao:
		a.analisarAtribuicao(c)
	case *parser.Condicional:
		a.analisarCondicional(c)
	case *parser.Laco:
		a.dentroLaco++
		a.analisarBloco(c.Corpo)
		a.dentroLaco--
	case *parser.ComandoSair:
		if a.dentroLaco == 0 {
			a.erro(utils.OutOfLoopControl, "'leave' fora de um laço", c.Token)
		}
	case *parser.ComandoRepetir:
		if a.dentroLaco == 0 {
			a.erro(utils.OutOfLoopControl, "'repeat' fora de um laço", c.Token)
		}
	case *parser.Retorno:
		a.analisarRetorno(c)
	case *parser.ComandoExpressao:
		// Única posição em que uma chamada void é permitida
		a.analisarExpressao(c.Expr, true)
	}
}

// analisarDeclaracaoVariavel verifica o inicializador antes de
// introduzir o nome: o escopo é léxico-sequencial
func (a *Analisador) analisarDeclaracaoVariavel(declaracao *parser.DeclaracaoVariavel) {
	tipoInicializador := a.analisarExpressao(declaracao.Inicializador, false)

	tipoVariavel := tipoInicializador
	if declaracao.TipoDeclarado != nil {
		tipoVariavel = *declaracao.TipoDeclarado
		if tipoInicializador != tipoVariavel && tipoInicializador != parser.TipoErro {
			a.erro(utils.TypeMismatch,
				fmt.Sprintf("variável '%s' declarada como %s, inicializador é %s",
					declaracao.Nome, tipoVariavel, tipoInicializador), declaracao.Token)
		}
	}

	simbolo := &Simbolo{
		Nome:        declaracao.Nome,
		Tipo:        tipoVariavel,
		DeclaradoEm: declaracao.Token.Position,
	}
	if !a.tabela.Declarar(simbolo) {
		a.erro(utils.DuplicateDeclaration,
			fmt.Sprintf("variável '%s' já declarada neste escopo", declaracao.Nome), declaracao.Token)
	}
}

// analisarAtribuicao verifica destino e compatibilidade de tipos
func (a *Analisador) analisarAtribuicao(atribuicao *parser.Atribuicao) {
	tipoValor := a.analisarExpressao(atribuicao.Valor, false)

	simbolo, ok := a.tabela.Resolver(atribuicao.Nome)
	if !ok {
		a.erro(utils.UnknownIdentifier,
			fmt.Sprintf("variável '%s' não declarada", atribuicao.Nome), atribuicao.Token)
		return
	}
	if simbolo.EProcedimento {
		a.erro(utils.TypeMismatch,
			fmt.Sprintf("'%s' é um procedimento e não pode receber atribuição", atribuicao.Nome), atribuicao.Token)
		return
	}

	if tipoValor != simbolo.Tipo && tipoValor != parser.TipoErro && simbolo.Tipo != parser.TipoErro {
		a.erro(utils.TypeMismatch,
			fmt.Sprintf("atribuição a '%s' espera %s, encontrado %s",
				atribuicao.Nome, simbolo.Tipo, tipoValor), atribuicao.Token)
	}
}

// analisarCondicional exige condição booleana e analisa os dois ramos
func (a *Analisador) analisarCondicional(condicional *parser.Condicional) {
	tipoCondicao := a.analisarExpressao(condicional.Condicao, false)
	if tipoCondicao != parser.TipoBooleano && tipoCondicao != parser.TipoErro {
		a.erro(utils.TypeMismatch,
			fmt.Sprintf("condição de 'when' deve ser boolean, encontrado %s", tipoCondicao), condicional.Token)
	}

	a.analisarBloco(condicional.Consequencia)
	if condicional.Alternativa != nil {
		a.analisarBloco(condicional.Alternativa)
	}
}

// analisarRetorno confere o valor de `yield` com o tipo de retorno
// declarado
func (a *Analisador) analisarRetorno(retorno *parser.Retorno) {
	if retorno.Valor == nil {
		if a.tipoRetornoAtual != parser.TipoVazio {
			a.erro(utils.ReturnTypeMismatch,
				fmt.Sprintf("'yield' sem valor em procedimento que retorna %s", a.tipoRetornoAtual), retorno.Token)
		}
		return
	}

	tipoValor := a.analisarExpressao(retorno.Valor, false)
	if a.tipoRetornoAtual == parser.TipoVazio {
		a.erro(utils.ReturnTypeMismatch,
			"'yield' com valor em procedimento void", retorno.Token)
		return
	}
	if tipoValor != a.tipoRetornoAtual && tipoValor != parser.TipoErro {
		a.erro(utils.ReturnTypeMismatch,
			fmt.Sprintf("'yield' espera %s, encontrado %s", a.tipoRetornoAtual, tipoValor), retorno.Token)
	}
}

// analisarExpressao infere e verifica o tipo da expressão, anotando o
// resultado no nó. permitirVazio vale apenas para a expressão inteira
// em posição de comando.
func (a *Analisador) analisarExpressao(expressao parser.Expressao, permitirVazio bool) parser.Tipo {
	switch e := expressao.(type) {
	case *parser.Literal:
		return e.Tipo

	case *parser.Variavel:
		return a.analisarVariavel(e)

	case *parser.OperacaoUnaria:
		tipoOperando := a.analisarExpressao(e.Operando, false)
		switch {
		case tipoOperando == parser.TipoErro:
			e.Tipo = parser.TipoErro
		case tipoOperando != parser.TipoNumero:
			a.erro(utils.TypeMismatch,
				fmt.Sprintf("menos unário espera number, encontrado %s", tipoOperando), e.Token)
			e.Tipo = parser.TipoErro
		default:
			e.Tipo = parser.TipoNumero
		}
		return e.Tipo

	case *parser.OperacaoBinaria:
		e.Tipo = a.analisarOperacaoBinaria(e)
		return e.Tipo

	case *parser.ChamadaProcedimento:
		e.Tipo = a.analisarChamada(e, permitirVazio)
		return e.Tipo
	}
	return parser.TipoErro
}

// analisarVariavel resolve o uso de uma variável e o marca como usado
func (a *Analisador) analisarVariavel(variavel *parser.Variavel) parser.Tipo {
	simbolo, ok := a.tabela.Resolver(variavel.Nome)
	if !ok {
		a.erro(utils.UnknownIdentifier,
			fmt.Sprintf("identificador '%s' não declarado", variavel.Nome), variavel.Token)
		variavel.Tipo = parser.TipoErro
		return variavel.Tipo
	}
	if simbolo.EProcedimento {
		a.erro(utils.TypeMismatch,
			fmt.Sprintf("'%s' é um procedimento, não uma variável", variavel.Nome), variavel.Token)
		variavel.Tipo = parser.TipoErro
		return variavel.Tipo
	}

	simbolo.Usado = true
	variavel.Tipo = simbolo.Tipo
	return variavel.Tipo
}

// analisarOperacaoBinaria aplica as regras de tipo de cada operador
func (a *Analisador) analisarOperacaoBinaria(operacao *parser.OperacaoBinaria) parser.Tipo {
	tipoEsquerda := a.analisarExpressao(operacao.Esquerda, false)
	tipoDireita := a.analisarExpressao(operacao.Direita, false)

	if tipoEsquerda == parser.TipoErro || tipoDireita == parser.TipoErro {
		return parser.TipoErro
	}

	switch operacao.Operador {
	case parser.ADICAO, parser.SUBTRACAO, parser.MULTIPLICACAO, parser.DIVISAO, parser.MODULO:
		if tipoEsquerda != parser.TipoNumero || tipoDireita != parser.TipoNumero {
			a.erro(utils.TypeMismatch,
				fmt.Sprintf("operador '%s' espera number em ambos os lados, encontrado %s e %s",
					operacao.Operador, tipoEsquerda, tipoDireita), operacao.Token)
			return parser.TipoErro
		}
		return parser.TipoNumero

	case parser.MENOR_QUE, parser.MAIOR_QUE, parser.MENOR_IGUAL, parser.MAIOR_IGUAL:
		if tipoEsquerda != parser.TipoNumero || tipoDireita != parser.TipoNumero {
			a.erro(utils.TypeMismatch,
				fmt.Sprintf("operador '%s' espera number em ambos os lados, encontrado %s e %s",
					operacao.Operador, tipoEsquerda, tipoDireita), operacao.Token)
			return parser.TipoErro
		}
		return parser.TipoBooleano

	case parser.IGUALDADE, parser.DIFERENCA:
		if tipoEsquerda != tipoDireita || tipoEsquerda == parser.TipoVazio {
			a.erro(utils.TypeMismatch,
				fmt.Sprintf("operador '%s' espera operandos do mesmo tipo, encontrado %s e %s",
					operacao.Operador, tipoEsquerda, tipoDireita), operacao.Token)
			return parser.TipoErro
		}
		return parser.TipoBooleano

	case parser.CONJUNCAO, parser.DISJUNCAO:
		if tipoEsquerda != parser.TipoBooleano || tipoDireita != parser.TipoBooleano {
			a.erro(utils.TypeMismatch,
				fmt.Sprintf("operador '%s' espera boolean em ambos os lados, encontrado %s e %s",
					operacao.Operador, tipoEsquerda, tipoDireita), operacao.Token)
			return parser.TipoErro
		}
		return parser.TipoBooleano
	}
	return parser.TipoErro
}

// analisarChamada resolve o procedimento chamado e confere os
// argumentos com a assinatura
func (a *Analisador) analisarChamada(chamada *parser.ChamadaProcedimento, permitirVazio bool) parser.Tipo {
	if registry.RegistroGlobal.EIntrinseco(chamada.Nome) {
		a.analisarChamadaPrint(chamada)
		if !permitirVazio {
			a.erro(utils.CallOfVoidInValuePosition,
				"'print' não produz valor", chamada.Token)
			return parser.TipoErro
		}
		return parser.TipoVazio
	}

	// `main` é reservado como ponto de entrada e não pode ser chamado
	if chamada.Nome == "main" {
		a.erro(utils.UnknownIdentifier,
			"identificador 'main' não declarado", chamada.Token)
		return parser.TipoErro
	}

	simbolo, ok := a.tabela.Resolver(chamada.Nome)
	if !ok {
		// Ainda verifica os argumentos para marcar usos
		for _, argumento := range chamada.Argumentos {
			a.analisarExpressao(argumento, false)
		}
		a.erro(utils.UnknownIdentifier,
			fmt.Sprintf("procedimento '%s' não declarado", chamada.Nome), chamada.Token)
		return parser.TipoErro
	}
	if !simbolo.EProcedimento {
		a.erro(utils.TypeMismatch,
			fmt.Sprintf("'%s' não é um procedimento", chamada.Nome), chamada.Token)
		return parser.TipoErro
	}
	simbolo.Usado = true

	tiposArgumentos := make([]parser.Tipo, len(chamada.Argumentos))
	for i, argumento := range chamada.Argumentos {
		tiposArgumentos[i] = a.analisarExpressao(argumento, false)
	}

	if len(tiposArgumentos) != len(simbolo.TiposParametros) {
		a.erro(utils.ArgumentCountMismatch,
			fmt.Sprintf("procedimento '%s' espera %d argumentos, encontrado %d",
				chamada.Nome, len(simbolo.TiposParametros), len(tiposArgumentos)), chamada.Token)
	} else {
		for i, tipoArgumento := range tiposArgumentos {
			esperado := simbolo.TiposParametros[i]
			if tipoArgumento != esperado && tipoArgumento != parser.TipoErro {
				a.erro(utils.ArgumentTypeMismatch,
					fmt.Sprintf("argumento %d de '%s' espera %s, encontrado %s",
						i+1, chamada.Nome, esperado, tipoArgumento), chamada.Token)
			}
		}
	}

	if simbolo.Tipo == parser.TipoVazio && !permitirVazio {
		a.erro(utils.CallOfVoidInValuePosition,
			fmt.Sprintf("procedimento void '%s' em posição de valor", chamada.Nome), chamada.Token)
		return parser.TipoErro
	}
	return simbolo.Tipo
}

// analisarChamadaPrint sintetiza a string de formato C do intrínseco
// `print` e a grava no nó da chamada para o gerador de código.
// Number vira %g, string vira %s e boolean vira %s imprimindo os
// literais yes/no.
func (a *Analisador) analisarChamadaPrint(chamada *parser.ChamadaProcedimento) {
	if len(chamada.Argumentos) == 0 {
		a.erro(utils.InvalidPrintFormat, "'print' requer ao menos um argumento", chamada.Token)
		return
	}

	literal, eLiteralTexto := chamada.Argumentos[0].(*parser.Literal)
	if eLiteralTexto && literal.Tipo == parser.TipoTexto && strings.Contains(literal.Texto, "{}") {
		a.sintetizarFormato(chamada, literal)
		return
	}

	// Sem string de formato: argumentos separados por espaço com uma
	// quebra de linha ao final
	conversoes := make([]string, 0, len(chamada.Argumentos))
	for _, argumento := range chamada.Argumentos {
		tipoArgumento := a.analisarExpressao(argumento, false)
		conversoes = append(conversoes, conversaoPrintf(tipoArgumento))
	}
	chamada.FormatoPrint = strings.Join(conversoes, " ") + "\n"
}

// sintetizarFormato preenche os marcadores {} do literal com as
// conversões dos argumentos restantes, na ordem
func (a *Analisador) sintetizarFormato(chamada *parser.ChamadaProcedimento, literal *parser.Literal) {
	restantes := chamada.Argumentos[1:]
	indice := 0

	var formato strings.Builder
	texto := []rune(literal.Texto)
	for i := 0; i < len(texto); i++ {
		if texto[i] == '{' && i+1 < len(texto) && texto[i+1] == '}' {
			i++
			if indice >= len(restantes) {
				a.erro(utils.InvalidPrintFormat,
					"mais marcadores {} do que argumentos em 'print'", chamada.Token)
				return
			}
			tipoArgumento := a.analisarExpressao(restantes[indice], false)
			formato.WriteString(conversaoPrintf(tipoArgumento))
			indice++
			continue
		}
		// `%` literal não pode ser interpretado pelo printf
		if texto[i] == '%' {
			formato.WriteString("%%")
			continue
		}
		formato.WriteRune(texto[i])
	}
	formato.WriteByte('\n')

	if indice != len(restantes) {
		a.erro(utils.InvalidPrintFormat,
			"mais argumentos do que marcadores {} em 'print'", chamada.Token)
		return
	}
	chamada.FormatoPrint = formato.String()
}

// conversaoPrintf mapeia um tipo da linguagem para a conversão printf
func conversaoPrintf(tipo parser.Tipo) string {
	switch tipo {
	case parser.TipoNumero:
		return "%g"
	case parser.TipoBooleano, parser.TipoTexto:
		return "%s"
	default:
		return "%g"
	}
}

// fecharEscopo desempilha o escopo atual, avisa sobre símbolos não
// usados e guarda o instantâneo para o artefato de tabelas
func (a *Analisador) fecharEscopo() {
	escopo := a.tabela.DesempilharEscopo()
	if escopo == nil {
		return
	}

	for _, simbolo := range escopo.Simbolos() {
		if simbolo.Usado {
			continue
		}
		tipo := utils.UnusedVariable
		mensagem := fmt.Sprintf("variável '%s' declarada mas nunca usada", simbolo.Nome)
		if simbolo.EProcedimento {
			tipo = utils.UnusedProcedure
			mensagem = fmt.Sprintf("procedimento '%s' declarado mas nunca usado", simbolo.Nome)
		}
		a.diagnosticos = append(a.diagnosticos,
			utils.NovoAviso(tipo, mensagem, simbolo.DeclaradoEm.Line, simbolo.DeclaradoEm.Column))
	}

	a.registros = append(a.registros, registroEscopo{
		procedimento: a.procedimentoAtual,
		escopo:       escopo,
	})
}

// DumpTabelas formata os escopos fechados por procedimento, no formato
// do artefato `-symbol_tables.txt`
func (a *Analisador) DumpTabelas() string {
	var builder strings.Builder
	for _, registro := range a.registros {
		fmt.Fprintf(&builder, "=== %s: escopo %s ===\n", registro.procedimento, registro.escopo.Nome)
		simbolos := registro.escopo.Simbolos()
		if len(simbolos) == 0 {
			builder.WriteString("  (vazio)\n")
			continue
		}
		for _, simbolo := range simbolos {
			fmt.Fprintf(&builder, "  %s\n", simbolo)
		}
	}
	return builder.String()
}

// erro registra um diagnóstico de erro na posição do token
func (a *Analisador) erro(tipo utils.TipoDiagnostico, mensagem string, token lexer.Token) {
	a.diagnosticos = append(a.diagnosticos,
		utils.NovoDiagnostico(tipo, mensagem, token.Position.Line, token.Position.Column))
}

// aviso registra um diagnóstico de aviso na posição do token
func (a *Analisador) aviso(tipo utils.TipoDiagnostico, mensagem string, token lexer.Token) {
	a.diagnosticos = append(a.diagnosticos,
		utils.NovoAviso(tipo, mensagem, token.Position.Line, token.Position.Column))
}

// tokenComando devolve o token de posição de um comando
func tokenComando(comando parser.Comando) lexer.Token {
	switch c := comando.(type) {
	case *parser.DeclaracaoVariavel:
		return c.Token
	case *parser.Atribuicao:
		return c.Token
	case *parser.Condicional:
		return c.Token
	case *parser.Laco:
		return c.Token
	case *parser.ComandoSair:
		return c.Token
	case *parser.ComandoRepetir:
		return c.Token
	case *parser.Retorno:
		return c.Token
	case *parser.ComandoExpressao:
		return tokenExpressao(c.Expr)
	}
	return lexer.Token{}
}

// tokenExpressao devolve o token de posição de uma expressão
func tokenExpressao(expressao parser.Expressao) lexer.Token {
	switch e := expressao.(type) {
	case *parser.Literal:
		return e.Token
	case *parser.Variavel:
		return e.Token
	case *parser.OperacaoUnaria:
		return e.Token
	case *parser.OperacaoBinaria:
		return e.Token
	case *parser.ChamadaProcedimento:
		return e.Token
	}
	return lexer.Token{}
}
