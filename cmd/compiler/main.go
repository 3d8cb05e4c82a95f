package main

import (
	"fmt"
	"os"

	cli "github.com/urfave/cli/v2"

	"github.com/khevencolino/Ziget/internal/compiler"
	"github.com/khevencolino/Ziget/internal/debug"
)

func main() {
	// Qualquer pânico que chegue aqui é violação de invariante
	// interna, não erro no fonte
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Erro interno do compilador: %v\n", r)
			os.Exit(2)
		}
	}()

	app := &cli.App{
		Name:      "ziget",
		Usage:     "Compila código fonte Ziget para LLVM IR",
		ArgsUsage: "<arquivo.zg>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "lexer-output",
				Usage: "grava os tokens em <radical>-tokens.txt",
			},
			&cli.BoolFlag{
				Name:  "parser-output",
				Usage: "grava a árvore sintática em <radical>-tree.txt",
			},
			&cli.BoolFlag{
				Name:  "symbol-output",
				Usage: "grava as tabelas de símbolos em <radical>-symbol_tables.txt",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "ativa mensagens de depuração",
			},
		},
		Action: func(contexto *cli.Context) error {
			if contexto.NArg() < 1 {
				return fmt.Errorf("arquivo de entrada requerido")
			}
			debug.Enabled = contexto.Bool("debug")

			compilador := compiler.NovoCompilador()
			return compilador.CompilarArquivo(contexto.Args().First(), compiler.Opcoes{
				SaidaLexer:    contexto.Bool("lexer-output"),
				SaidaParser:   contexto.Bool("parser-output"),
				SaidaSimbolos: contexto.Bool("symbol-output"),
			})
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Erro de compilação: %v\n", err)
		os.Exit(1)
	}
}
