package semantic

import (
	"strings"
	"testing"

	"github.com/khevencolino/Ziget/internal/lexer"
	"github.com/khevencolino/Ziget/internal/parser"
	"github.com/khevencolino/Ziget/internal/utils"
)

// analisarFonte roda léxico, sintático e semântico sobre o fonte,
// exigindo que os dois primeiros estágios passem limpos
func analisarFonte(t *testing.T, fonte string) (*parser.Programa, utils.Diagnosticos) {
	t.Helper()
	tokens, diagnosticos := lexer.NovoLexer(fonte).Tokenizar()
	if diagnosticos.TemErros() {
		t.Fatalf("erros léxicos inesperados: %v", diagnosticos)
	}
	programa, diagnosticos := parser.NovoParser(tokens).AnalisarPrograma()
	if diagnosticos.TemErros() {
		t.Fatalf("erros sintáticos inesperados: %v", diagnosticos)
	}
	return programa, NovoAnalisador().Analisar(programa)
}

func temDiagnostico(diagnosticos utils.Diagnosticos, tipo utils.TipoDiagnostico) bool {
	for _, diagnostico := range diagnosticos {
		if diagnostico.Tipo == tipo {
			return true
		}
	}
	return false
}

func TestErrosSemanticos(t *testing.T) {
	testes := []struct {
		nome  string
		fonte string
		tipo  utils.TipoDiagnostico
	}{
		{"leave_fora_de_laco", "procedure main { leave; }", utils.OutOfLoopControl},
		{"repeat_fora_de_laco", "procedure main { repeat; }", utils.OutOfLoopControl},
		{"declaracao_duplicada", "procedure main { define a := 5; define a := 6; }", utils.DuplicateDeclaration},
		{"parametro_duplicado", "procedure f(a -> number, a -> number) { yield; } procedure main { f(1, 2); }", utils.DuplicateDeclaration},
		{"identificador_desconhecido", "procedure main { define x := nada; }", utils.UnknownIdentifier},
		{"uso_antes_da_declaracao", "procedure main { define a := b; define b := 1; a := b; }", utils.UnknownIdentifier},
		{"procedimento_desconhecido", "procedure main { faz(); }", utils.UnknownIdentifier},
		{"chamada_de_main", "procedure main { main(); }", utils.UnknownIdentifier},
		{"soma_de_textos", `procedure main { define x := "a" + "b"; print("{}", x); }`, utils.TypeMismatch},
		{"aritmetica_com_booleano", "procedure main { define x := yes * 2; print(\"{}\", x); }", utils.TypeMismatch},
		{"comparacao_de_textos", `procedure main { when "a" < "b" { } }`, utils.TypeMismatch},
		{"igualdade_mista", "procedure main { when 1 is yes { } }", utils.TypeMismatch},
		{"logico_com_numero", "procedure main { when 1 and 2 { } }", utils.TypeMismatch},
		{"menos_unario_em_texto", `procedure main { define x := -"a"; print("{}", x); }`, utils.TypeMismatch},
		{"condicao_nao_booleana", "procedure main { when 1 { } }", utils.TypeMismatch},
		{"anotacao_divergente", "procedure main { define x -> boolean := 1; print(\"{}\", x); }", utils.TypeMismatch},
		{"atribuicao_divergente", "procedure main { define x := 1; x := yes; print(\"{}\", x); }", utils.TypeMismatch},
		{"atribuicao_a_desconhecida", "procedure main { z := 1; }", utils.UnknownIdentifier},
		{"contagem_de_argumentos", "procedure f(a -> number) { yield; } procedure main { f(); }", utils.ArgumentCountMismatch},
		{"tipo_de_argumento", "procedure f(a -> number) { yield; } procedure main { f(yes); }", utils.ArgumentTypeMismatch},
		{"yield_divergente", "procedure f -> number { yield yes; } procedure main { f(); }", utils.ReturnTypeMismatch},
		{"yield_sem_valor", "procedure f -> number { yield; } procedure main { f(); }", utils.ReturnTypeMismatch},
		{"yield_com_valor_em_void", "procedure f { yield 1; } procedure main { f(); }", utils.ReturnTypeMismatch},
		{"void_em_posicao_de_valor", "procedure v { yield; } procedure main { define x := v(); print(\"{}\", x); }", utils.CallOfVoidInValuePosition},
		{"print_em_posicao_de_valor", `procedure main { define x := print("a"); }`, utils.CallOfVoidInValuePosition},
		{"print_sem_argumentos", "procedure main { print(); }", utils.InvalidPrintFormat},
		{"print_marcadores_demais", `procedure main { print("{} {}", 1); }`, utils.InvalidPrintFormat},
		{"print_argumentos_demais", `procedure main { print("{}", 1, 2); }`, utils.InvalidPrintFormat},
	}

	for _, teste := range testes {
		t.Run(teste.nome, func(t *testing.T) {
			_, diagnosticos := analisarFonte(t, teste.fonte)
			if !temDiagnostico(diagnosticos, teste.tipo) {
				t.Errorf("esperado %s, encontrado %v", teste.tipo, diagnosticos)
			}
		})
	}
}

func TestAvisos(t *testing.T) {
	testes := []struct {
		nome  string
		fonte string
		tipo  utils.TipoDiagnostico
	}{
		{"variavel_nao_usada", "procedure main { define x := 5; }", utils.UnusedVariable},
		{"parametro_nao_usado", "procedure f(a -> number) { yield; } procedure main { f(1); }", utils.UnusedVariable},
		{"procedimento_nao_usado", "procedure helper { yield; } procedure main { }", utils.UnusedProcedure},
		{"inalcancavel_depois_de_yield", "procedure main { yield; define x := 1; }", utils.Unreachable},
		{"inalcancavel_depois_de_leave", "procedure main { loop { leave; define x := 1; } }", utils.Unreachable},
	}

	for _, teste := range testes {
		t.Run(teste.nome, func(t *testing.T) {
			_, diagnosticos := analisarFonte(t, teste.fonte)
			if !temDiagnostico(diagnosticos, teste.tipo) {
				t.Errorf("esperado %s, encontrado %v", teste.tipo, diagnosticos)
			}
			if diagnosticos.TemErros() {
				t.Errorf("avisos não deveriam vir com erros: %v", diagnosticos)
			}
		})
	}
}

func TestProgramaValido(t *testing.T) {
	fontes := map[string]string{
		"fatorial": `
procedure fatorial(n -> number) -> number {
    when n <= 1 { yield 1; }
    yield n * fatorial(n - 1);
}
procedure main {
    print("The factorial of {} is {}", 5, fatorial(5));
}
`,
		"recursao_mutua": `
procedure par(n -> number) -> boolean {
    when n is 0 { yield yes; }
    yield impar(n - 1);
}
procedure impar(n -> number) -> boolean {
    when n is 0 { yield no; }
    yield par(n - 1);
}
procedure main {
    print("{}", par(10));
}
`,
		"sombreamento": `
procedure main {
    define x := 1;
    loop {
        define x := 2;
        print("{}", x);
        leave;
    }
    print("{}", x);
}
`,
		"laco_com_contador": `
procedure main {
    define i := 0;
    loop {
        when i >= 3 { leave; }
        print("{}", i);
        i := i + 1;
    }
}
`,
		"igualdade_de_textos": `
procedure main {
    when "a" is "a" {
        print("iguais");
    }
}
`,
	}

	for nome, fonte := range fontes {
		t.Run(nome, func(t *testing.T) {
			_, diagnosticos := analisarFonte(t, fonte)
			if diagnosticos.TemErros() {
				t.Errorf("programa válido reportou erros: %v", diagnosticos)
			}
		})
	}
}

func TestSentinelaDeErroSuprimeCascata(t *testing.T) {
	// Só o identificador desconhecido é reportado; a soma e a
	// atribuição que o envolvem ficam com o tipo sentinela
	_, diagnosticos := analisarFonte(t, `
procedure main {
    define x := nada + 1;
    x := x + 2;
    print("{}", x);
}
`)
	if diagnosticos.Erros() != 1 {
		t.Fatalf("esperado exatamente 1 erro, encontrado %d: %v", diagnosticos.Erros(), diagnosticos)
	}
	if diagnosticos[0].Tipo != utils.UnknownIdentifier {
		t.Errorf("esperado UnknownIdentifier, encontrado %s", diagnosticos[0].Tipo)
	}
}

func TestSinteseDeFormatoPrint(t *testing.T) {
	testes := []struct {
		nome    string
		fonte   string
		formato string
	}{
		{"com_marcadores", `procedure main { print("a {} b {}", 1, "x"); }`, "a %g b %s\n"},
		{"booleano_vira_texto", `procedure main { print("{}", yes); }`, "%s\n"},
		{"sem_formato", `procedure main { print(1, yes, "s"); }`, "%g %s %s\n"},
		{"porcento_escapado", `procedure main { print("100% de {}", 1); }`, "100%% de %g\n"},
		{"texto_solto", `procedure main { print("oi"); }`, "%s\n"},
	}

	for _, teste := range testes {
		t.Run(teste.nome, func(t *testing.T) {
			programa, diagnosticos := analisarFonte(t, teste.fonte)
			if diagnosticos.TemErros() {
				t.Fatalf("erros inesperados: %v", diagnosticos)
			}
			comando := programa.Principal.Corpo.Comandos[0].(*parser.ComandoExpressao)
			chamada := comando.Expr.(*parser.ChamadaProcedimento)
			if chamada.FormatoPrint != teste.formato {
				t.Errorf("esperado formato %q, encontrado %q", teste.formato, chamada.FormatoPrint)
			}
		})
	}
}

func TestInferenciaDeTipos(t *testing.T) {
	programa, diagnosticos := analisarFonte(t, `
procedure dobro(n -> number) -> number { yield n * 2; }
procedure main {
    define x := dobro(4) + 1;
    when x > 0 and yes { print("{}", x); }
}
`)
	if diagnosticos.TemErros() {
		t.Fatalf("erros inesperados: %v", diagnosticos)
	}

	declaracao := programa.Principal.Corpo.Comandos[0].(*parser.DeclaracaoVariavel)
	if declaracao.Inicializador.TipoAnotado() != parser.TipoNumero {
		t.Errorf("esperado number inferido, encontrado %s", declaracao.Inicializador.TipoAnotado())
	}

	condicional := programa.Principal.Corpo.Comandos[1].(*parser.Condicional)
	if condicional.Condicao.TipoAnotado() != parser.TipoBooleano {
		t.Errorf("esperado boolean na condição, encontrado %s", condicional.Condicao.TipoAnotado())
	}
}

func TestDumpTabelas(t *testing.T) {
	fonte := `
procedure dobro(n -> number) -> number { yield n * 2; }
procedure main {
    define usado := dobro(2);
    define solto := 1;
    print("{}", usado);
}
`
	tokens, _ := lexer.NovoLexer(fonte).Tokenizar()
	programa, diagnosticos := parser.NovoParser(tokens).AnalisarPrograma()
	if diagnosticos.TemErros() {
		t.Fatalf("erros sintáticos inesperados: %v", diagnosticos)
	}

	analisador := NovoAnalisador()
	if diagnosticos := analisador.Analisar(programa); diagnosticos.TemErros() {
		t.Fatalf("erros semânticos inesperados: %v", diagnosticos)
	}
	saida := analisador.DumpTabelas()

	for _, trecho := range []string{
		"n: number [usado]",
		"usado: number [usado]",
		"solto: number [não usado]",
		"dobro: procedure(number) -> number [usado]",
	} {
		if !strings.Contains(saida, trecho) {
			t.Errorf("artefato de tabelas sem %q:\n%s", trecho, saida)
		}
	}
}
