package llvm

import (
	"fmt"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/khevencolino/Ziget/internal/debug"
	"github.com/khevencolino/Ziget/internal/parser"
	"github.com/khevencolino/Ziget/internal/registry"
)

// slot associa a alloca de uma variável ao seu tipo na linguagem
type slot struct {
	ponteiro *ir.InstAlloca
	tipo     parser.Tipo
}

// parLaco guarda os blocos de controle do laço envolvente: `repeat`
// desvia para o cabeçalho e `leave` para a saída
type parLaco struct {
	cabecalho *ir.Block
	saida     *ir.Block
}

// LLVMBackend percorre a árvore validada emitindo LLVM IR através do
// construtor de módulos do llir. Todo bloco básico termina com
// exatamente um terminador; o gerador insere retornos padrão onde o
// fluxo do fonte deixa um bloco aberto.
type LLVMBackend struct {
	modulo *ir.Module
	funcao *ir.Func
	bloco  *ir.Block

	printf *ir.Func
	strcmp *ir.Func

	procedimentos map[string]*ir.Func
	variaveis     map[string]slot
	pilhaEscopos  []map[string]slot
	pilhaLacos    []parLaco

	// textos deduplica literais de texto por conteúdo
	textos        map[string]*ir.Global
	contadorTexto int
	contadorBloco int

	emPrincipal bool
}

// NewLLVMBackend cria um novo gerador LLVM
func NewLLVMBackend() *LLVMBackend {
	return &LLVMBackend{
		procedimentos: make(map[string]*ir.Func),
		variaveis:     make(map[string]slot),
		textos:        make(map[string]*ir.Global),
	}
}

func (l *LLVMBackend) GetName() string      { return "LLVM IR" }
func (l *LLVMBackend) GetExtension() string { return ".ll" }

// Compile emite o módulo LLVM completo do programa e o retorna como
// texto
func (l *LLVMBackend) Compile(programa *parser.Programa) (string, error) {
	debug.Printf("Gerando LLVM IR...\n")

	l.modulo = ir.NewModule()

	// Preâmbulo global: printf é o shim do intrínseco print
	l.printf = l.modulo.NewFunc("printf", types.I32,
		ir.NewParam("format", types.NewPointer(types.I8)))
	l.printf.Sig.Variadic = true

	// Primeira passada: protótipos, para chamadas adiantadas
	for _, procedimento := range programa.Procedimentos {
		l.declararProcedimento(procedimento)
	}

	for _, procedimento := range programa.Procedimentos {
		l.definirProcedimento(procedimento)
	}

	l.definirPrincipal(programa.Principal)

	return l.modulo.String(), nil
}

// tipoLLVM mapeia um tipo da linguagem para o tipo LLVM
func tipoLLVM(tipo parser.Tipo) types.Type {
	switch tipo {
	case parser.TipoNumero:
		return types.Double
	case parser.TipoBooleano:
		return types.I1
	case parser.TipoTexto:
		return types.NewPointer(types.I8)
	default:
		return types.Void
	}
}

// declararProcedimento cria a função LLVM com a assinatura mapeada
func (l *LLVMBackend) declararProcedimento(procedimento *parser.DeclaracaoProcedimento) {
	parametros := make([]*ir.Param, len(procedimento.Parametros))
	for i, parametro := range procedimento.Parametros {
		parametros[i] = ir.NewParam(parametro.Nome, tipoLLVM(parametro.TipoParametro))
	}
	funcao := l.modulo.NewFunc(procedimento.Nome, tipoLLVM(procedimento.TipoRetorno), parametros...)
	l.procedimentos[procedimento.Nome] = funcao
}

// definirProcedimento emite o corpo de um procedimento: um slot de
// pilha por parâmetro, depois os comandos do bloco
func (l *LLVMBackend) definirProcedimento(procedimento *parser.DeclaracaoProcedimento) {
	funcao := l.procedimentos[procedimento.Nome]
	l.funcao = funcao
	l.bloco = funcao.NewBlock("entry")

	l.empilharEscopo()
	for i, parametro := range procedimento.Parametros {
		ponteiro := l.bloco.NewAlloca(tipoLLVM(parametro.TipoParametro))
		l.bloco.NewStore(funcao.Params[i], ponteiro)
		l.variaveis[parametro.Nome] = slot{ponteiro: ponteiro, tipo: parametro.TipoParametro}
	}

	l.gerarBloco(procedimento.Corpo)
	l.desempilharEscopo()

	if l.bloco.Term == nil {
		l.retornoPadrao(procedimento.TipoRetorno)
	}
}

// definirPrincipal emite a função C main com o corpo do `main` do
// fonte; a convenção de ligação pede i32 de retorno
func (l *LLVMBackend) definirPrincipal(principal *parser.ProcedimentoPrincipal) {
	l.funcao = l.modulo.NewFunc("main", types.I32)
	l.bloco = l.funcao.NewBlock("entry")
	l.emPrincipal = true

	l.empilharEscopo()
	l.gerarBloco(principal.Corpo)
	l.desempilharEscopo()

	if l.bloco.Term == nil {
		l.bloco.NewRet(constant.NewInt(types.I32, 0))
	}
	l.emPrincipal = false
}

// retornoPadrao fecha um bloco aberto com o valor zero do tipo de
// retorno
func (l *LLVMBackend) retornoPadrao(tipo parser.Tipo) {
	switch tipo {
	case parser.TipoNumero:
		l.bloco.NewRet(constant.NewFloat(types.Double, 0))
	case parser.TipoBooleano:
		l.bloco.NewRet(constant.NewInt(types.I1, 0))
	case parser.TipoTexto:
		l.bloco.NewRet(l.ponteiroTexto(""))
	default:
		l.bloco.NewRet(nil)
	}
}

// gerarBloco emite os comandos de um bloco em um novo escopo de
// variáveis. Comandos depois de um terminador são fluxo morto e não
// são emitidos.
func (l *LLVMBackend) gerarBloco(bloco *parser.Bloco) {
	l.empilharEscopo()
	for _, comando := range bloco.Comandos {
		if l.bloco.Term != nil {
			break
		}
		l.gerarComando(comando)
	}
	l.desempilharEscopo()
}

// gerarComando despacha a emissão do comando
func (l *LLVMBackend) gerarComando(comando parser.Comando) {
	switch c := comando.(type) {
	case *parser.DeclaracaoVariavel:
		l.gerarDeclaracaoVariavel(c)

	case *parser.Atribuicao:
		valor := l.gerarExpressao(c.Valor)
		destino, ok := l.obterVariavel(c.Nome)
		if !ok {
			panic(fmt.Sprintf("variável '%s' sem slot de pilha", c.Nome))
		}
		l.bloco.NewStore(valor, destino.ponteiro)

	case *parser.Condicional:
		l.gerarCondicional(c)

	case *parser.Laco:
		l.gerarLaco(c)

	case *parser.ComandoSair:
		l.bloco.NewBr(l.lacoAtual().saida)

	case *parser.ComandoRepetir:
		l.bloco.NewBr(l.lacoAtual().cabecalho)

	case *parser.Retorno:
		l.gerarRetorno(c)

	case *parser.ComandoExpressao:
		l.gerarExpressao(c.Expr)
	}
}

// gerarDeclaracaoVariavel aloca o slot da variável e armazena o
// inicializador. A alloca no ponto de declaração domina todos os usos
// do escopo.
func (l *LLVMBackend) gerarDeclaracaoVariavel(declaracao *parser.DeclaracaoVariavel) {
	tipo := declaracao.Inicializador.TipoAnotado()
	if declaracao.TipoDeclarado != nil {
		tipo = *declaracao.TipoDeclarado
	}

	valor := l.gerarExpressao(declaracao.Inicializador)
	ponteiro := l.bloco.NewAlloca(tipoLLVM(tipo))
	l.bloco.NewStore(valor, ponteiro)
	l.variaveis[declaracao.Nome] = slot{ponteiro: ponteiro, tipo: tipo}
}

// gerarCondicional emite os blocos then/else/merge do `when`
func (l *LLVMBackend) gerarCondicional(condicional *parser.Condicional) {
	condicao := l.gerarExpressao(condicional.Condicao)

	blocoEntao := l.novoBloco("then")
	blocoFim := l.novoBloco("merge")
	blocoSenao := blocoFim
	if condicional.Alternativa != nil {
		blocoSenao = l.novoBloco("else")
	}

	l.bloco.NewCondBr(condicao, blocoEntao, blocoSenao)

	l.bloco = blocoEntao
	l.gerarBloco(condicional.Consequencia)
	if l.bloco.Term == nil {
		l.bloco.NewBr(blocoFim)
	}

	if condicional.Alternativa != nil {
		l.bloco = blocoSenao
		l.gerarBloco(condicional.Alternativa)
		if l.bloco.Term == nil {
			l.bloco.NewBr(blocoFim)
		}
	}

	l.bloco = blocoFim
}

// gerarLaco emite cabeçalho, corpo e saída do `loop`; o cabeçalho
// entra incondicionalmente no corpo
func (l *LLVMBackend) gerarLaco(laco *parser.Laco) {
	cabecalho := l.novoBloco("loop.header")
	corpo := l.novoBloco("loop.body")
	saida := l.novoBloco("loop.exit")

	l.bloco.NewBr(cabecalho)
	cabecalho.NewBr(corpo)

	l.pilhaLacos = append(l.pilhaLacos, parLaco{cabecalho: cabecalho, saida: saida})
	l.bloco = corpo
	l.gerarBloco(laco.Corpo)
	if l.bloco.Term == nil {
		l.bloco.NewBr(cabecalho)
	}
	l.pilhaLacos = l.pilhaLacos[:len(l.pilhaLacos)-1]

	l.bloco = saida
}

// gerarRetorno emite o terminador do `yield`. No corpo do `main` o
// retorno vira o código de saída zero do processo.
func (l *LLVMBackend) gerarRetorno(retorno *parser.Retorno) {
	if retorno.Valor != nil {
		l.bloco.NewRet(l.gerarExpressao(retorno.Valor))
		return
	}
	if l.emPrincipal {
		l.bloco.NewRet(constant.NewInt(types.I32, 0))
		return
	}
	l.bloco.NewRet(nil)
}

// gerarExpressao materializa o valor de uma expressão em um registro
// SSA
func (l *LLVMBackend) gerarExpressao(expressao parser.Expressao) value.Value {
	switch e := expressao.(type) {
	case *parser.Literal:
		return l.gerarLiteral(e)

	case *parser.Variavel:
		origem, ok := l.obterVariavel(e.Nome)
		if !ok {
			panic(fmt.Sprintf("variável '%s' sem slot de pilha", e.Nome))
		}
		return l.bloco.NewLoad(tipoLLVM(origem.tipo), origem.ponteiro)

	case *parser.OperacaoUnaria:
		return l.bloco.NewFNeg(l.gerarExpressao(e.Operando))

	case *parser.OperacaoBinaria:
		return l.gerarOperacaoBinaria(e)

	case *parser.ChamadaProcedimento:
		return l.gerarChamada(e)
	}
	panic("expressão desconhecida na geração de código")
}

// gerarLiteral emite a constante correspondente ao literal
func (l *LLVMBackend) gerarLiteral(literal *parser.Literal) value.Value {
	switch literal.Tipo {
	case parser.TipoNumero:
		return constant.NewFloat(types.Double, literal.Numero)
	case parser.TipoBooleano:
		if literal.Booleano {
			return constant.NewInt(types.I1, 1)
		}
		return constant.NewInt(types.I1, 0)
	default:
		return l.ponteiroTexto(literal.Texto)
	}
}

// gerarOperacaoBinaria emite a operação sobre os valores já
// materializados; `and`/`or` ganham curto-circuito com phi
func (l *LLVMBackend) gerarOperacaoBinaria(operacao *parser.OperacaoBinaria) value.Value {
	switch operacao.Operador {
	case parser.CONJUNCAO:
		return l.gerarCurtoCircuito(operacao, false)
	case parser.DISJUNCAO:
		return l.gerarCurtoCircuito(operacao, true)
	}

	esquerda := l.gerarExpressao(operacao.Esquerda)
	direita := l.gerarExpressao(operacao.Direita)

	switch operacao.Operador {
	case parser.ADICAO:
		return l.bloco.NewFAdd(esquerda, direita)
	case parser.SUBTRACAO:
		return l.bloco.NewFSub(esquerda, direita)
	case parser.MULTIPLICACAO:
		return l.bloco.NewFMul(esquerda, direita)
	case parser.DIVISAO:
		return l.bloco.NewFDiv(esquerda, direita)
	case parser.MODULO:
		return l.bloco.NewFRem(esquerda, direita)

	case parser.MENOR_QUE:
		return l.bloco.NewFCmp(enum.FPredOLT, esquerda, direita)
	case parser.MAIOR_QUE:
		return l.bloco.NewFCmp(enum.FPredOGT, esquerda, direita)
	case parser.MENOR_IGUAL:
		return l.bloco.NewFCmp(enum.FPredOLE, esquerda, direita)
	case parser.MAIOR_IGUAL:
		return l.bloco.NewFCmp(enum.FPredOGE, esquerda, direita)

	case parser.IGUALDADE:
		return l.gerarIgualdade(operacao.Esquerda.TipoAnotado(), esquerda, direita, true)
	case parser.DIFERENCA:
		return l.gerarIgualdade(operacao.Esquerda.TipoAnotado(), esquerda, direita, false)
	}
	panic("operador desconhecido na geração de código")
}

// gerarCurtoCircuito emite `and`/`or` com desvio condicional e phi no
// bloco de junção. O lado direito só é avaliado quando o esquerdo não
// decide o resultado.
func (l *LLVMBackend) gerarCurtoCircuito(operacao *parser.OperacaoBinaria, disjuncao bool) value.Value {
	esquerda := l.gerarExpressao(operacao.Esquerda)
	blocoOrigem := l.bloco

	blocoDireita := l.novoBloco("sc.rhs")
	blocoFim := l.novoBloco("sc.end")

	curto := constant.NewInt(types.I1, 0)
	if disjuncao {
		curto = constant.NewInt(types.I1, 1)
		blocoOrigem.NewCondBr(esquerda, blocoFim, blocoDireita)
	} else {
		blocoOrigem.NewCondBr(esquerda, blocoDireita, blocoFim)
	}

	l.bloco = blocoDireita
	direita := l.gerarExpressao(operacao.Direita)
	blocoDireitaFinal := l.bloco
	blocoDireitaFinal.NewBr(blocoFim)

	l.bloco = blocoFim
	return blocoFim.NewPhi(
		ir.NewIncoming(curto, blocoOrigem),
		ir.NewIncoming(direita, blocoDireitaFinal),
	)
}

// gerarIgualdade emite `is`/`isnt` conforme o tipo dos operandos:
// fcmp para números, icmp para booleanos e strcmp para textos
func (l *LLVMBackend) gerarIgualdade(tipo parser.Tipo, esquerda, direita value.Value, igual bool) value.Value {
	switch tipo {
	case parser.TipoNumero:
		predicado := enum.FPredOEQ
		if !igual {
			predicado = enum.FPredONE
		}
		return l.bloco.NewFCmp(predicado, esquerda, direita)

	case parser.TipoBooleano:
		predicado := enum.IPredEQ
		if !igual {
			predicado = enum.IPredNE
		}
		return l.bloco.NewICmp(predicado, esquerda, direita)

	default:
		comparacao := l.bloco.NewCall(l.obterStrcmp(), esquerda, direita)
		predicado := enum.IPredEQ
		if !igual {
			predicado = enum.IPredNE
		}
		return l.bloco.NewICmp(predicado, comparacao, constant.NewInt(types.I32, 0))
	}
}

// obterStrcmp declara strcmp no preâmbulo na primeira comparação de
// textos
func (l *LLVMBackend) obterStrcmp() *ir.Func {
	if l.strcmp == nil {
		l.strcmp = l.modulo.NewFunc("strcmp", types.I32,
			ir.NewParam("a", types.NewPointer(types.I8)),
			ir.NewParam("b", types.NewPointer(types.I8)))
	}
	return l.strcmp
}

// gerarChamada emite uma chamada direta ou o rebaixamento do
// intrínseco `print`
func (l *LLVMBackend) gerarChamada(chamada *parser.ChamadaProcedimento) value.Value {
	if registry.RegistroGlobal.EIntrinseco(chamada.Nome) {
		return l.gerarPrint(chamada)
	}

	funcao, ok := l.procedimentos[chamada.Nome]
	if !ok {
		panic(fmt.Sprintf("procedimento '%s' sem função declarada", chamada.Nome))
	}

	argumentos := make([]value.Value, len(chamada.Argumentos))
	for i, argumento := range chamada.Argumentos {
		argumentos[i] = l.gerarExpressao(argumento)
	}
	return l.bloco.NewCall(funcao, argumentos...)
}

// gerarPrint rebaixa o intrínseco para printf usando a string de
// formato sintetizada pelo analisador. Booleanos viram os textos
// yes/no via select.
func (l *LLVMBackend) gerarPrint(chamada *parser.ChamadaProcedimento) value.Value {
	formato := l.ponteiroTexto(chamada.FormatoPrint)
	argumentos := []value.Value{formato}

	for _, argumento := range argumentosPrint(chamada) {
		valor := l.gerarExpressao(argumento)
		if argumento.TipoAnotado() == parser.TipoBooleano {
			valor = l.bloco.NewSelect(valor, l.ponteiroTexto("yes"), l.ponteiroTexto("no"))
		}
		argumentos = append(argumentos, valor)
	}

	return l.bloco.NewCall(l.printf, argumentos...)
}

// argumentosPrint devolve os argumentos passados ao printf: quando o
// primeiro é a string de formato consumida na síntese, só os
// restantes viram varargs
func argumentosPrint(chamada *parser.ChamadaProcedimento) []parser.Expressao {
	if len(chamada.Argumentos) == 0 {
		return nil
	}
	if literal, ok := chamada.Argumentos[0].(*parser.Literal); ok &&
		literal.Tipo == parser.TipoTexto && strings.Contains(literal.Texto, "{}") {
		return chamada.Argumentos[1:]
	}
	return chamada.Argumentos
}

// ponteiroTexto devolve um ponteiro i8* para o literal, reaproveitando
// o global quando o mesmo conteúdo já foi emitido
func (l *LLVMBackend) ponteiroTexto(texto string) value.Value {
	global, ok := l.textos[texto]
	if !ok {
		global = l.modulo.NewGlobalDef(l.proximoNomeTexto(),
			constant.NewCharArrayFromString(texto+"\x00"))
		global.Immutable = true
		l.textos[texto] = global
	}

	return l.bloco.NewGetElementPtr(types.NewArray(uint64(len(texto)+1), types.I8), global,
		constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 0))
}

// proximoNomeTexto gera um nome único para globais de texto
func (l *LLVMBackend) proximoNomeTexto() string {
	nome := fmt.Sprintf("str_%d", l.contadorTexto)
	l.contadorTexto++
	return nome
}

// novoBloco cria um bloco básico com rótulo único na função atual
func (l *LLVMBackend) novoBloco(prefixo string) *ir.Block {
	l.contadorBloco++
	return l.funcao.NewBlock(fmt.Sprintf("%s.%d", prefixo, l.contadorBloco))
}

// lacoAtual devolve o par de blocos do laço envolvente
func (l *LLVMBackend) lacoAtual() parLaco {
	if len(l.pilhaLacos) == 0 {
		panic("controle de laço fora de um laço na geração de código")
	}
	return l.pilhaLacos[len(l.pilhaLacos)-1]
}

// Escopos de variáveis: o mapa atual é empilhado e o bloco ganha um
// mapa vazio, o que isola o shadowing por bloco; a busca percorre a
// pilha
func (l *LLVMBackend) empilharEscopo() {
	l.pilhaEscopos = append(l.pilhaEscopos, l.variaveis)
	l.variaveis = make(map[string]slot)
}

func (l *LLVMBackend) desempilharEscopo() {
	topo := l.pilhaEscopos[len(l.pilhaEscopos)-1]
	l.pilhaEscopos = l.pilhaEscopos[:len(l.pilhaEscopos)-1]
	l.variaveis = topo
}

// obterVariavel busca o slot do escopo atual para os anteriores
func (l *LLVMBackend) obterVariavel(nome string) (slot, bool) {
	if s, ok := l.variaveis[nome]; ok {
		return s, true
	}
	for i := len(l.pilhaEscopos) - 1; i >= 0; i-- {
		if s, ok := l.pilhaEscopos[i][nome]; ok {
			return s, true
		}
	}
	return slot{}, false
}
