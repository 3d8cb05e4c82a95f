package lexer

import (
	"testing"

	"github.com/khevencolino/Ziget/internal/utils"
)

func TestTokenizar(t *testing.T) {
	testes := []struct {
		nome    string
		fonte   string
		tipos   []TokenType
		lexemas []string
	}{
		// Identificadores e palavras-chave: a reclassificação só
		// acontece com o lexema completo
		{"identificador", "foo", []TokenType{IDENTIFIER, EOF}, []string{"foo", ""}},
		{"identificador_prefixo_keyword", "island", []TokenType{IDENTIFIER, EOF}, []string{"island", ""}},
		{"identificador_com_digitos", "foo123", []TokenType{IDENTIFIER, EOF}, []string{"foo123", ""}},
		{"identificador_com_sublinhado", "foo_bar", []TokenType{IDENTIFIER, EOF}, []string{"foo_bar", ""}},
		{"keyword_procedure", "procedure", []TokenType{PROCEDURE, EOF}, nil},
		{"keyword_define", "define", []TokenType{DEFINE, EOF}, nil},
		{"keyword_when", "when otherwise", []TokenType{WHEN, OTHERWISE, EOF}, nil},
		{"keyword_loop", "loop leave repeat", []TokenType{LOOP, LEAVE, REPEAT, EOF}, nil},
		{"keyword_yield", "yield", []TokenType{YIELD, EOF}, nil},
		{"keyword_print", "print", []TokenType{PRINT, EOF}, nil},
		{"keywords_tipo", "number boolean string", []TokenType{TYPE_NUMBER, TYPE_BOOLEAN, TYPE_STRING, EOF}, nil},
		{"operadores_palavra", "is isnt and or", []TokenType{IS, ISNT, AND, OR, EOF}, nil},
		{"literais_booleanos", "yes no", []TokenType{YES, NO, EOF}, nil},
		{"is_seguido_de_identificador", "is land", []TokenType{IS, IDENTIFIER, EOF}, []string{"is", "land", ""}},

		// Números: sempre ponto flutuante de 64 bits
		{"numero_inteiro", "42", []TokenType{NUMBER, EOF}, []string{"42", ""}},
		{"numero_decimal", "3.14", []TokenType{NUMBER, EOF}, []string{"3.14", ""}},
		{"numeros_sequencia", "1 2.5 10", []TokenType{NUMBER, NUMBER, NUMBER, EOF}, []string{"1", "2.5", "10", ""}},

		// Textos: as aspas não fazem parte do lexema
		{"texto_simples", `"hello"`, []TokenType{STRING, EOF}, []string{"hello", ""}},
		{"texto_vazio", `""`, []TokenType{STRING, EOF}, []string{"", ""}},
		{"texto_com_espacos", `"a b c"`, []TokenType{STRING, EOF}, []string{"a b c", ""}},
		{"texto_com_quebra", "\"a\nb\"", []TokenType{STRING, EOF}, []string{"a\nb", ""}},

		// Operadores e delimitadores
		{"aritmeticos", "+ - * / %", []TokenType{PLUS, MINUS, TIMES, DIVIDE, MODULO, EOF}, nil},
		{"comparacoes", "< > <= >=", []TokenType{LESS, GREATER, LESS_EQUAL, GREATER_EQUAL, EOF}, nil},
		{"atribuicao", "x := 1", []TokenType{IDENTIFIER, ASSIGN, NUMBER, EOF}, nil},
		{"seta", "a -> number", []TokenType{IDENTIFIER, ARROW, TYPE_NUMBER, EOF}, nil},
		{"menos_sem_seta", "1-2", []TokenType{NUMBER, MINUS, NUMBER, EOF}, []string{"1", "-", "2", ""}},
		{"seta_colada", "a->b", []TokenType{IDENTIFIER, ARROW, IDENTIFIER, EOF}, nil},
		{"delimitadores", "( ) { } , ;", []TokenType{LPAREN, RPAREN, LBRACE, RBRACE, COMMA, SEMICOLON, EOF}, nil},
		{"menos_no_fim", "x -", []TokenType{IDENTIFIER, MINUS, EOF}, nil},
		{"menor_no_fim", "x <", []TokenType{IDENTIFIER, LESS, EOF}, nil},

		// Comentários não emitem token
		{"comentario", "# nada\nx", []TokenType{IDENTIFIER, EOF}, []string{"x", ""}},
		{"comentario_no_fim", "x # nada", []TokenType{IDENTIFIER, EOF}, nil},
		{"comentario_fecha_token", "abc# nada\n", []TokenType{IDENTIFIER, EOF}, []string{"abc", ""}},

		{"vazio", "", []TokenType{EOF}, nil},
		{"so_espacos", "  \t\n  ", []TokenType{EOF}, nil},
	}

	for _, teste := range testes {
		t.Run(teste.nome, func(t *testing.T) {
			tokens, diagnosticos := NovoLexer(teste.fonte).Tokenizar()
			if diagnosticos.TemErros() {
				t.Fatalf("diagnósticos inesperados: %v", diagnosticos)
			}
			if len(tokens) != len(teste.tipos) {
				t.Fatalf("esperado %d tokens, encontrado %d: %v", len(teste.tipos), len(tokens), tokens)
			}
			for i, tipo := range teste.tipos {
				if tokens[i].Type != tipo {
					t.Errorf("token %d: esperado %s, encontrado %s", i, tipo, tokens[i].Type)
				}
				if teste.lexemas != nil && tokens[i].Value != teste.lexemas[i] {
					t.Errorf("token %d: esperado lexema %q, encontrado %q", i, teste.lexemas[i], tokens[i].Value)
				}
			}
		})
	}
}

func TestErrosLexicos(t *testing.T) {
	testes := []struct {
		nome  string
		fonte string
		tipos []TokenType
		diag  utils.TipoDiagnostico
	}{
		{"caractere_invalido", "@", []TokenType{UNKNOWN, EOF}, utils.UnknownCharacter},
		{"igual_sozinho", "=", []TokenType{UNKNOWN, EOF}, utils.UnknownCharacter},
		{"exclamacao", "!", []TokenType{UNKNOWN, EOF}, utils.UnknownCharacter},
		{"dois_pontos_sozinho", ": x", []TokenType{UNKNOWN, IDENTIFIER, EOF}, utils.UnknownCharacter},
		{"sublinhado_no_inicio", "_a", []TokenType{UNKNOWN, IDENTIFIER, EOF}, utils.UnknownCharacter},
		{"numero_com_ponto_solto", "12.", []TokenType{UNKNOWN, EOF}, utils.UnknownCharacter},
		{"numero_ponto_letra", "12.x", []TokenType{UNKNOWN, IDENTIFIER, EOF}, utils.UnknownCharacter},
		{"texto_nao_terminado", `"abc`, []TokenType{UNKNOWN, EOF}, utils.UnterminatedString},
	}

	for _, teste := range testes {
		t.Run(teste.nome, func(t *testing.T) {
			tokens, diagnosticos := NovoLexer(teste.fonte).Tokenizar()
			if !diagnosticos.TemErros() {
				t.Fatal("esperado ao menos um diagnóstico de erro")
			}
			if diagnosticos[0].Tipo != teste.diag {
				t.Errorf("esperado diagnóstico %s, encontrado %s", teste.diag, diagnosticos[0].Tipo)
			}
			if len(tokens) != len(teste.tipos) {
				t.Fatalf("esperado %d tokens, encontrado %d: %v", len(teste.tipos), len(tokens), tokens)
			}
			for i, tipo := range teste.tipos {
				if tokens[i].Type != tipo {
					t.Errorf("token %d: esperado %s, encontrado %s", i, tipo, tokens[i].Type)
				}
			}
		})
	}
}

func TestTotalidade(t *testing.T) {
	// A varredura nunca aborta: toda entrada produz uma lista
	// terminada em EOF, com um diagnóstico por trecho rejeitado
	fontes := []string{
		"@@@@",
		"define @ x := $;",
		"\"aberta\nprocedure",
		"::::",
		"1.2.3",
	}
	for _, fonte := range fontes {
		tokens, _ := NovoLexer(fonte).Tokenizar()
		if len(tokens) == 0 {
			t.Fatalf("fonte %q: lista de tokens vazia", fonte)
		}
		if tokens[len(tokens)-1].Type != EOF {
			t.Errorf("fonte %q: último token é %s, esperado EOF", fonte, tokens[len(tokens)-1].Type)
		}
	}
}

func TestPosicoes(t *testing.T) {
	fonte := "when x {\n  y := 1;\n}"
	tokens, diagnosticos := NovoLexer(fonte).Tokenizar()
	if diagnosticos.TemErros() {
		t.Fatalf("diagnósticos inesperados: %v", diagnosticos)
	}

	esperado := []struct {
		tipo   TokenType
		linha  int
		coluna int
	}{
		{WHEN, 1, 1},
		{IDENTIFIER, 1, 6},
		{LBRACE, 1, 8},
		{IDENTIFIER, 2, 3},
		{ASSIGN, 2, 5},
		{NUMBER, 2, 8},
		{SEMICOLON, 2, 9},
		{RBRACE, 3, 1},
		{EOF, 3, 2},
	}

	if len(tokens) != len(esperado) {
		t.Fatalf("esperado %d tokens, encontrado %d: %v", len(esperado), len(tokens), tokens)
	}
	for i, e := range esperado {
		if tokens[i].Type != e.tipo {
			t.Errorf("token %d: esperado %s, encontrado %s", i, e.tipo, tokens[i].Type)
		}
		if tokens[i].Position.Line != e.linha || tokens[i].Position.Column != e.coluna {
			t.Errorf("token %d (%s): esperado posição %d:%d, encontrado %d:%d",
				i, e.tipo, e.linha, e.coluna, tokens[i].Position.Line, tokens[i].Position.Column)
		}
	}
}

func TestFormatoArtefato(t *testing.T) {
	tokens, _ := NovoLexer("define x := 5;").Tokenizar()
	saida := ImprimirTokens(tokens)
	esperado := "DEFINE \"define\" (1:1)\nIDENTIFIER \"x\" (1:8)\nASSIGN \":=\" (1:10)\nNUMBER \"5\" (1:13)\nSEMICOLON \";\" (1:14)\nEOF \"\" (1:15)\n"
	if saida != esperado {
		t.Errorf("artefato de tokens divergente:\nesperado:\n%s\nencontrado:\n%s", esperado, saida)
	}
}
