package compiler

import (
	"fmt"
	"os"

	"github.com/khevencolino/Ziget/internal/backends"
	"github.com/khevencolino/Ziget/internal/backends/llvm"
	"github.com/khevencolino/Ziget/internal/debug"
	"github.com/khevencolino/Ziget/internal/lexer"
	"github.com/khevencolino/Ziget/internal/parser"
	"github.com/khevencolino/Ziget/internal/semantic"
	"github.com/khevencolino/Ziget/internal/utils"
)

// Opcoes controla os artefatos de depuração gravados ao lado do fonte
type Opcoes struct {
	SaidaLexer    bool // <radical>-tokens.txt
	SaidaParser   bool // <radical>-tree.txt
	SaidaSimbolos bool // <radical>-symbol_tables.txt
}

// ErroCompilacao indica que um estágio reportou erros no fonte; o
// driver encerra com código 1
type ErroCompilacao struct {
	Estagio string
	Erros   int
}

// Error implementa a interface error
func (e *ErroCompilacao) Error() string {
	return fmt.Sprintf("%s: %d erro(s)", e.Estagio, e.Erros)
}

// Compiler encadeia os estágios do pipeline: léxico, sintático,
// semântico e geração de IR. Cada estágio consome por completo a saída
// do anterior e o pipeline não avança com erros pendentes.
type Compiler struct {
	backend backends.Backend
}

// NovoCompilador cria um compilador com o backend LLVM
func NovoCompilador() *Compiler {
	return &Compiler{
		backend: llvm.NewLLVMBackend(),
	}
}

// CompilarArquivo compila um arquivo fonte `.zg` até o `.ll` ao lado
// do fonte
func (c *Compiler) CompilarArquivo(arquivoEntrada string, opcoes Opcoes) error {
	conteudo, err := utils.LerArquivo(arquivoEntrada)
	if err != nil {
		return err
	}
	radical := utils.RadicalArquivo(arquivoEntrada)

	// Análise léxica
	debug.Printf("Analisando tokens...\n")
	tokens, diagnosticos := lexer.NovoLexer(conteudo).Tokenizar()
	if opcoes.SaidaLexer {
		arquivoTokens := radical + "-tokens.txt"
		if err := utils.EscreverArquivo(arquivoTokens, lexer.ImprimirTokens(tokens)); err != nil {
			return err
		}
		fmt.Printf("Tokens escritos em %s\n", arquivoTokens)
	}
	if err := reportarEstagio("análise léxica", diagnosticos); err != nil {
		return err
	}

	// Análise sintática
	debug.Printf("Analisando sintaxe...\n")
	programa, diagnosticos := parser.NovoParser(tokens).AnalisarPrograma()
	if err := reportarEstagio("análise sintática", diagnosticos); err != nil {
		return err
	}

	// Análise semântica
	debug.Printf("Analisando semântica...\n")
	analisador := semantic.NovoAnalisador()
	diagnosticos = analisador.Analisar(programa)

	if opcoes.SaidaParser {
		arquivoArvore := radical + "-tree.txt"
		if err := utils.EscreverArquivo(arquivoArvore, parser.DumpArvore(programa)); err != nil {
			return err
		}
		fmt.Printf("Árvore sintática escrita em %s\n", arquivoArvore)
		parser.NovoVisualizador().ImprimirArvore(programa)
	}
	if opcoes.SaidaSimbolos {
		arquivoSimbolos := radical + "-symbol_tables.txt"
		if err := utils.EscreverArquivo(arquivoSimbolos, analisador.DumpTabelas()); err != nil {
			return err
		}
		fmt.Printf("Tabelas de símbolos escritas em %s\n", arquivoSimbolos)
	}
	if err := reportarEstagio("análise semântica", diagnosticos); err != nil {
		return err
	}

	// Geração de código
	debug.Printf("Gerando código intermediário...\n")
	conteudoIR, err := c.backend.Compile(programa)
	if err != nil {
		return err
	}
	arquivoSaida := radical + c.backend.GetExtension()
	if err := utils.EscreverArquivo(arquivoSaida, conteudoIR); err != nil {
		return err
	}
	fmt.Printf("IR escrito em %s\n", arquivoSaida)

	clang := os.Getenv("ZIGET_CLANG_PATH")
	if clang == "" {
		clang = "clang"
	}
	debug.Printf("Use '%s %s -o %s.out' para gerar o executável\n", clang, arquivoSaida, radical)

	return nil
}

// reportarEstagio imprime todos os diagnósticos do estágio e devolve
// erro quando algum tem severidade de erro. Avisos não interrompem o
// pipeline.
func reportarEstagio(estagio string, diagnosticos utils.Diagnosticos) error {
	diagnosticos.Reportar(os.Stderr)
	if diagnosticos.TemErros() {
		return &ErroCompilacao{Estagio: estagio, Erros: diagnosticos.Erros()}
	}
	return nil
}
