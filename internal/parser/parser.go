package parser

import (
	"fmt"
	"strconv"

	"github.com/khevencolino/Ziget/internal/lexer"
	"github.com/khevencolino/Ziget/internal/utils"
)

// Parser representa o analisador sintático descendente recursivo com um
// token de lookahead. Ele nunca aborta: diagnósticos são acumulados e a
// análise ressincroniza no próximo `;` ou `}` da profundidade atual.
type Parser struct {
	tokens       []lexer.Token
	posicaoAtual int
	diagnosticos utils.Diagnosticos
}

// NovoParser cria um novo analisador sintático
func NovoParser(tokens []lexer.Token) *Parser {
	return &Parser{
		tokens:       tokens,
		posicaoAtual: 0,
	}
}

// AnalisarPrograma analisa a sequência de declarações de procedimento
// do programa. Sempre retorna um Programa, possivelmente incompleto,
// junto com os diagnósticos acumulados.
func (p *Parser) AnalisarPrograma() (*Programa, utils.Diagnosticos) {
	programa := &Programa{}

	for !p.chegouAoFim() {
		token := p.tokenAtual()
		if token.Type != lexer.PROCEDURE {
			p.diagnostico(utils.StatementOutsideProcedure,
				fmt.Sprintf("comando fora de procedimento: encontrado %s", token.Type), token)
			p.sincronizarDeclaracao()
			continue
		}

		procedimento, ok := p.analisarProcedimento()
		if !ok {
			p.sincronizarDeclaracao()
			continue
		}

		if procedimento.Nome == "main" {
			p.registrarPrincipal(programa, procedimento)
		} else {
			programa.Procedimentos = append(programa.Procedimentos, procedimento)
		}
	}

	if programa.Principal == nil {
		p.diagnosticos = append(p.diagnosticos,
			utils.NovoDiagnostico(utils.MissingMain, "programa requer um procedimento 'main'", 0, 0))
	}

	return programa, p.diagnosticos
}

// registrarPrincipal valida e instala o procedimento de entrada
func (p *Parser) registrarPrincipal(programa *Programa, procedimento *DeclaracaoProcedimento) {
	if programa.Principal != nil {
		p.diagnostico(utils.DuplicateDeclaration,
			"procedimento 'main' declarado mais de uma vez", procedimento.Token)
		return
	}
	if len(procedimento.Parametros) > 0 {
		p.diagnostico(utils.UnexpectedToken,
			"'main' não declara parâmetros", procedimento.Token)
	}
	if procedimento.TipoRetorno != TipoVazio {
		p.diagnostico(utils.UnexpectedToken,
			"'main' não declara tipo de retorno", procedimento.Token)
	}
	programa.Principal = &ProcedimentoPrincipal{
		Corpo: procedimento.Corpo,
		Token: procedimento.Token,
	}
}

// analisarProcedimento analisa uma declaração de procedimento completa
func (p *Parser) analisarProcedimento() (*DeclaracaoProcedimento, bool) {
	tokenProcedimento, ok := p.esperar(lexer.PROCEDURE)
	if !ok {
		return nil, false
	}

	nome, ok := p.analisarIdentificador()
	if !ok {
		return nil, false
	}

	parametros, ok := p.analisarParametros()
	if !ok {
		return nil, false
	}

	// O tipo de retorno é opcional; ausente significa void
	tipoRetorno := TipoVazio
	if p.tokenAtual().Type == lexer.ARROW {
		p.proximoToken()
		tipoRetorno, ok = p.analisarTipo()
		if !ok {
			return nil, false
		}
	}

	corpo, ok := p.analisarBloco()
	if !ok {
		return nil, false
	}

	return &DeclaracaoProcedimento{
		Nome:        nome.Value,
		Parametros:  parametros,
		TipoRetorno: tipoRetorno,
		Corpo:       corpo,
		Token:       tokenProcedimento,
	}, true
}

// analisarParametros analisa a lista de parâmetros. Os parênteses podem
// ser omitidos em declarações sem parâmetros.
func (p *Parser) analisarParametros() ([]Parametro, bool) {
	var parametros []Parametro

	if p.tokenAtual().Type != lexer.LPAREN {
		return parametros, true
	}
	p.proximoToken()

	for p.tokenAtual().Type != lexer.RPAREN {
		nome, ok := p.analisarIdentificador()
		if !ok {
			return nil, false
		}
		if _, ok := p.esperar(lexer.ARROW); !ok {
			return nil, false
		}
		tipoParametro, ok := p.analisarTipo()
		if !ok {
			return nil, false
		}
		parametros = append(parametros, Parametro{
			Nome:          nome.Value,
			TipoParametro: tipoParametro,
			Token:         nome,
		})

		if p.tokenAtual().Type == lexer.COMMA {
			p.proximoToken()
		} else {
			break
		}
	}

	if _, ok := p.esperar(lexer.RPAREN); !ok {
		return nil, false
	}
	return parametros, true
}

// analisarTipo analisa uma das palavras-chave de tipo
func (p *Parser) analisarTipo() (Tipo, bool) {
	token := p.tokenAtual()
	switch token.Type {
	case lexer.TYPE_NUMBER:
		p.proximoToken()
		return TipoNumero, true
	case lexer.TYPE_BOOLEAN:
		p.proximoToken()
		return TipoBooleano, true
	case lexer.TYPE_STRING:
		p.proximoToken()
		return TipoTexto, true
	default:
		p.diagnostico(utils.ExpectedToken,
			fmt.Sprintf("esperado um tipo (number, boolean, string), encontrado %s", token.Type), token)
		return TipoErro, false
	}
}

// analisarBloco analisa `{ comandos* }` com recuperação por comando
func (p *Parser) analisarBloco() (*Bloco, bool) {
	if _, ok := p.esperar(lexer.LBRACE); !ok {
		return nil, false
	}

	bloco := &Bloco{}
	for !p.chegouAoFim() && p.tokenAtual().Type != lexer.RBRACE {
		comando, ok := p.analisarComando()
		if !ok {
			p.sincronizarComando()
			continue
		}
		bloco.Comandos = append(bloco.Comandos, comando)
	}

	if _, ok := p.esperar(lexer.RBRACE); !ok {
		return nil, false
	}
	return bloco, true
}

// analisarComando despacha para a produção do comando atual
func (p *Parser) analisarComando() (Comando, bool) {
	token := p.tokenAtual()
	switch token.Type {
	case lexer.LEAVE:
		p.proximoToken()
		if _, ok := p.esperar(lexer.SEMICOLON); !ok {
			return nil, false
		}
		return &ComandoSair{Token: token}, true

	case lexer.REPEAT:
		p.proximoToken()
		if _, ok := p.esperar(lexer.SEMICOLON); !ok {
			return nil, false
		}
		return &ComandoRepetir{Token: token}, true

	case lexer.DEFINE:
		return p.analisarDeclaracaoVariavel()

	case lexer.YIELD:
		return p.analisarRetorno()

	case lexer.LOOP:
		return p.analisarLaco()

	case lexer.WHEN:
		return p.analisarCondicional()

	case lexer.IDENTIFIER:
		return p.analisarAtribuicaoOuExpressao()

	case lexer.PRINT:
		return p.analisarComandoExpressao()

	default:
		p.diagnostico(utils.UnexpectedToken,
			fmt.Sprintf("comando inválido: encontrado %s", token.Type), token)
		return nil, false
	}
}

// analisarDeclaracaoVariavel analisa `define nome [-> tipo] := expr;`
func (p *Parser) analisarDeclaracaoVariavel() (Comando, bool) {
	tokenDefine, _ := p.esperar(lexer.DEFINE)

	nome, ok := p.analisarIdentificador()
	if !ok {
		return nil, false
	}

	var tipoDeclarado *Tipo
	if p.tokenAtual().Type == lexer.ARROW {
		p.proximoToken()
		tipo, ok := p.analisarTipo()
		if !ok {
			return nil, false
		}
		tipoDeclarado = &tipo
	}

	if _, ok := p.esperar(lexer.ASSIGN); !ok {
		return nil, false
	}

	inicializador, ok := p.analisarExpressao()
	if !ok {
		return nil, false
	}
	if _, ok := p.esperar(lexer.SEMICOLON); !ok {
		return nil, false
	}

	return &DeclaracaoVariavel{
		Nome:          nome.Value,
		TipoDeclarado: tipoDeclarado,
		Inicializador: inicializador,
		Token:         tokenDefine,
	}, true
}

// analisarAtribuicaoOuExpressao decide com um token de lookahead entre
// atribuição e expressão em posição de comando
func (p *Parser) analisarAtribuicaoOuExpressao() (Comando, bool) {
	if p.espiar().Type == lexer.ASSIGN {
		nome, _ := p.analisarIdentificador()
		p.proximoToken() // consome `:=`
		valor, ok := p.analisarExpressao()
		if !ok {
			return nil, false
		}
		if _, ok := p.esperar(lexer.SEMICOLON); !ok {
			return nil, false
		}
		return &Atribuicao{Nome: nome.Value, Valor: valor, Token: nome}, true
	}
	return p.analisarComandoExpressao()
}

// analisarComandoExpressao analisa `expr;`
func (p *Parser) analisarComandoExpressao() (Comando, bool) {
	expressao, ok := p.analisarExpressao()
	if !ok {
		return nil, false
	}
	if _, ok := p.esperar(lexer.SEMICOLON); !ok {
		return nil, false
	}
	return &ComandoExpressao{Expr: expressao}, true
}

// analisarRetorno analisa `yield [expr];`
func (p *Parser) analisarRetorno() (Comando, bool) {
	tokenYield, _ := p.esperar(lexer.YIELD)

	if p.tokenAtual().Type == lexer.SEMICOLON {
		p.proximoToken()
		return &Retorno{Token: tokenYield}, true
	}

	valor, ok := p.analisarExpressao()
	if !ok {
		return nil, false
	}
	if _, ok := p.esperar(lexer.SEMICOLON); !ok {
		return nil, false
	}
	return &Retorno{Valor: valor, Token: tokenYield}, true
}

// analisarLaco analisa `loop { }`
func (p *Parser) analisarLaco() (Comando, bool) {
	tokenLoop, _ := p.esperar(lexer.LOOP)
	corpo, ok := p.analisarBloco()
	if !ok {
		return nil, false
	}
	return &Laco{Corpo: corpo, Token: tokenLoop}, true
}

// analisarCondicional analisa `when expr { } [otherwise { }]`
func (p *Parser) analisarCondicional() (Comando, bool) {
	tokenWhen, _ := p.esperar(lexer.WHEN)

	condicao, ok := p.analisarExpressao()
	if !ok {
		return nil, false
	}

	consequencia, ok := p.analisarBloco()
	if !ok {
		return nil, false
	}

	var alternativa *Bloco
	if p.tokenAtual().Type == lexer.OTHERWISE {
		p.proximoToken()
		alternativa, ok = p.analisarBloco()
		if !ok {
			return nil, false
		}
	}

	return &Condicional{
		Condicao:     condicao,
		Consequencia: consequencia,
		Alternativa:  alternativa,
		Token:        tokenWhen,
	}, true
}

// A precedência é codificada pelas camadas da gramática, do operador
// mais fraco (`or`) ao mais forte (menos unário); todos os operadores
// binários associam à esquerda.

func (p *Parser) analisarExpressao() (Expressao, bool) {
	return p.analisarOu()
}

func (p *Parser) analisarOu() (Expressao, bool) {
	return p.analisarBinaria(p.analisarE, map[lexer.TokenType]TipoOperador{
		lexer.OR: DISJUNCAO,
	})
}

func (p *Parser) analisarE() (Expressao, bool) {
	return p.analisarBinaria(p.analisarIgualdade, map[lexer.TokenType]TipoOperador{
		lexer.AND: CONJUNCAO,
	})
}

func (p *Parser) analisarIgualdade() (Expressao, bool) {
	return p.analisarBinaria(p.analisarRelacional, map[lexer.TokenType]TipoOperador{
		lexer.IS:   IGUALDADE,
		lexer.ISNT: DIFERENCA,
	})
}

func (p *Parser) analisarRelacional() (Expressao, bool) {
	return p.analisarBinaria(p.analisarAditiva, map[lexer.TokenType]TipoOperador{
		lexer.LESS:          MENOR_QUE,
		lexer.GREATER:       MAIOR_QUE,
		lexer.LESS_EQUAL:    MENOR_IGUAL,
		lexer.GREATER_EQUAL: MAIOR_IGUAL,
	})
}

func (p *Parser) analisarAditiva() (Expressao, bool) {
	return p.analisarBinaria(p.analisarMultiplicativa, map[lexer.TokenType]TipoOperador{
		lexer.PLUS:  ADICAO,
		lexer.MINUS: SUBTRACAO,
	})
}

func (p *Parser) analisarMultiplicativa() (Expressao, bool) {
	return p.analisarBinaria(p.analisarUnaria, map[lexer.TokenType]TipoOperador{
		lexer.TIMES:  MULTIPLICACAO,
		lexer.DIVIDE: DIVISAO,
		lexer.MODULO: MODULO,
	})
}

// analisarBinaria analisa uma camada de operadores associativos à
// esquerda sobre a camada imediatamente mais forte
func (p *Parser) analisarBinaria(proximaCamada func() (Expressao, bool), operadores map[lexer.TokenType]TipoOperador) (Expressao, bool) {
	esquerda, ok := proximaCamada()
	if !ok {
		return nil, false
	}

	for {
		operador, encontrado := operadores[p.tokenAtual().Type]
		if !encontrado {
			return esquerda, true
		}
		tokenOperador := p.proximoToken()

		direita, ok := proximaCamada()
		if !ok {
			return nil, false
		}
		esquerda = &OperacaoBinaria{
			Esquerda: esquerda,
			Operador: operador,
			Direita:  direita,
			Token:    tokenOperador,
		}
	}
}

func (p *Parser) analisarUnaria() (Expressao, bool) {
	if p.tokenAtual().Type == lexer.MINUS {
		tokenMenos := p.proximoToken()
		operando, ok := p.analisarUnaria()
		if !ok {
			return nil, false
		}
		return &OperacaoUnaria{
			Operador: SUBTRACAO,
			Operando: operando,
			Token:    tokenMenos,
		}, true
	}
	return p.analisarPrimaria()
}

// analisarPrimaria analisa literais, variáveis, chamadas e expressões
// parentizadas
func (p *Parser) analisarPrimaria() (Expressao, bool) {
	token := p.tokenAtual()

	switch token.Type {
	case lexer.NUMBER:
		p.proximoToken()
		valor, err := strconv.ParseFloat(token.Value, 64)
		if err != nil {
			p.diagnostico(utils.UnexpectedToken,
				fmt.Sprintf("literal numérico inválido %q", token.Value), token)
			return nil, false
		}
		return &Literal{Numero: valor, Tipo: TipoNumero, Token: token}, true

	case lexer.STRING:
		p.proximoToken()
		return &Literal{Texto: token.Value, Tipo: TipoTexto, Token: token}, true

	case lexer.YES:
		p.proximoToken()
		return &Literal{Booleano: true, Tipo: TipoBooleano, Token: token}, true

	case lexer.NO:
		p.proximoToken()
		return &Literal{Booleano: false, Tipo: TipoBooleano, Token: token}, true

	case lexer.IDENTIFIER:
		p.proximoToken()
		if p.tokenAtual().Type == lexer.LPAREN {
			return p.analisarChamadaProcedimento(token)
		}
		return &Variavel{Nome: token.Value, Token: token}, true

	case lexer.PRINT:
		// `print` é um intrínseco; em uma chamada os parênteses são
		// sempre obrigatórios
		p.proximoToken()
		if p.tokenAtual().Type != lexer.LPAREN {
			p.diagnostico(utils.ExpectedToken,
				fmt.Sprintf("esperado %s depois de 'print', encontrado %s", lexer.LPAREN, p.tokenAtual().Type), p.tokenAtual())
			return nil, false
		}
		return p.analisarChamadaProcedimento(token)

	case lexer.LPAREN:
		p.proximoToken()
		expressao, ok := p.analisarExpressao()
		if !ok {
			return nil, false
		}
		if _, ok := p.esperar(lexer.RPAREN); !ok {
			return nil, false
		}
		return expressao, true

	default:
		p.diagnostico(utils.UnexpectedToken,
			fmt.Sprintf("expressão inválida: encontrado %s", token.Type), token)
		return nil, false
	}
}

// analisarChamadaProcedimento analisa `nome(args...)`
func (p *Parser) analisarChamadaProcedimento(tokenNome lexer.Token) (Expressao, bool) {
	if _, ok := p.esperar(lexer.LPAREN); !ok {
		return nil, false
	}

	var argumentos []Expressao
	if p.tokenAtual().Type != lexer.RPAREN {
		for {
			argumento, ok := p.analisarExpressao()
			if !ok {
				return nil, false
			}
			argumentos = append(argumentos, argumento)

			if p.tokenAtual().Type != lexer.COMMA {
				break
			}
			p.proximoToken()
		}
	}

	if _, ok := p.esperar(lexer.RPAREN); !ok {
		return nil, false
	}

	return &ChamadaProcedimento{
		Nome:       tokenNome.Value,
		Argumentos: argumentos,
		Token:      tokenNome,
	}, true
}

// analisarIdentificador exige um token identificador
func (p *Parser) analisarIdentificador() (lexer.Token, bool) {
	return p.esperar(lexer.IDENTIFIER)
}

// esperar consome o próximo token se for do tipo esperado; caso
// contrário reporta ExpectedToken
func (p *Parser) esperar(tipoEsperado lexer.TokenType) (lexer.Token, bool) {
	token := p.tokenAtual()
	if token.Type != tipoEsperado {
		mensagem := fmt.Sprintf("esperado %s, encontrado %s", tipoEsperado, token.Type)
		if token.Type == lexer.EOF {
			mensagem = fmt.Sprintf("esperado %s, encontrado fim do arquivo", tipoEsperado)
		}
		p.diagnostico(utils.ExpectedToken, mensagem, token)
		return token, false
	}
	return p.proximoToken(), true
}

// sincronizarComando pula tokens até o próximo `;` ou `}` na
// profundidade de chaves atual
func (p *Parser) sincronizarComando() {
	profundidade := 0
	for !p.chegouAoFim() {
		switch p.tokenAtual().Type {
		case lexer.SEMICOLON:
			if profundidade == 0 {
				p.proximoToken()
				return
			}
		case lexer.LBRACE:
			profundidade++
		case lexer.RBRACE:
			if profundidade == 0 {
				return
			}
			profundidade--
		}
		p.proximoToken()
	}
}

// sincronizarDeclaracao pula tokens até a próxima declaração de
// procedimento
func (p *Parser) sincronizarDeclaracao() {
	for !p.chegouAoFim() && p.tokenAtual().Type != lexer.PROCEDURE {
		p.proximoToken()
	}
}

// diagnostico registra um erro sintático na posição do token
func (p *Parser) diagnostico(tipo utils.TipoDiagnostico, mensagem string, token lexer.Token) {
	p.diagnosticos = append(p.diagnosticos,
		utils.NovoDiagnostico(tipo, mensagem, token.Position.Line, token.Position.Column))
}

// proximoToken retorna o token atual e avança a posição
func (p *Parser) proximoToken() lexer.Token {
	token := p.tokenAtual()
	if p.posicaoAtual < len(p.tokens) {
		p.posicaoAtual++
	}
	return token
}

// espiar retorna o token seguinte ao atual sem avançar
func (p *Parser) espiar() lexer.Token {
	if p.posicaoAtual+1 >= len(p.tokens) {
		return lexer.NovoToken(lexer.EOF, "", lexer.NovaPosicao(0, 0))
	}
	return p.tokens[p.posicaoAtual+1]
}

// tokenAtual retorna o token atual sem avançar
func (p *Parser) tokenAtual() lexer.Token {
	if p.posicaoAtual >= len(p.tokens) {
		return lexer.NovoToken(lexer.EOF, "", lexer.NovaPosicao(0, 0))
	}
	return p.tokens[p.posicaoAtual]
}

// chegouAoFim verifica se restam tokens significativos
func (p *Parser) chegouAoFim() bool {
	return p.tokenAtual().Type == lexer.EOF
}
