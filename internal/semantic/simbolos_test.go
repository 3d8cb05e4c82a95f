package semantic

import (
	"testing"

	"github.com/khevencolino/Ziget/internal/parser"
)

func TestEscopoRejeitaDuplicata(t *testing.T) {
	escopo := NovoEscopo("teste")
	if !escopo.Declarar(&Simbolo{Nome: "x", Tipo: parser.TipoNumero}) {
		t.Fatal("primeira declaração rejeitada")
	}
	if escopo.Declarar(&Simbolo{Nome: "x", Tipo: parser.TipoTexto}) {
		t.Fatal("declaração duplicada aceita")
	}
}

func TestResolucaoDeDentroParaFora(t *testing.T) {
	tabela := NovaTabelaSimbolos()
	tabela.EmpilharEscopo("externo")
	tabela.Declarar(&Simbolo{Nome: "x", Tipo: parser.TipoNumero})
	tabela.Declarar(&Simbolo{Nome: "y", Tipo: parser.TipoNumero})

	tabela.EmpilharEscopo("interno")
	tabela.Declarar(&Simbolo{Nome: "x", Tipo: parser.TipoTexto})

	// O x interno sombreia o externo; y continua visível
	simbolo, ok := tabela.Resolver("x")
	if !ok || simbolo.Tipo != parser.TipoTexto {
		t.Errorf("esperado x interno (string), encontrado %+v", simbolo)
	}
	if _, ok := tabela.Resolver("y"); !ok {
		t.Error("y do escopo externo não resolvido")
	}

	tabela.DesempilharEscopo()
	simbolo, ok = tabela.Resolver("x")
	if !ok || simbolo.Tipo != parser.TipoNumero {
		t.Errorf("esperado x externo (number) depois do pop, encontrado %+v", simbolo)
	}
}

func TestMarcarUsado(t *testing.T) {
	tabela := NovaTabelaSimbolos()
	tabela.EmpilharEscopo("externo")
	tabela.Declarar(&Simbolo{Nome: "x", Tipo: parser.TipoNumero})
	tabela.EmpilharEscopo("interno")

	tabela.MarcarUsado("x")

	simbolo, _ := tabela.Resolver("x")
	if !simbolo.Usado {
		t.Error("uso não registrado através do escopo aninhado")
	}
}

func TestOrdemDeInsercao(t *testing.T) {
	escopo := NovoEscopo("teste")
	nomes := []string{"c", "a", "b"}
	for _, nome := range nomes {
		escopo.Declarar(&Simbolo{Nome: nome, Tipo: parser.TipoNumero})
	}

	simbolos := escopo.Simbolos()
	if len(simbolos) != len(nomes) {
		t.Fatalf("esperado %d símbolos, encontrado %d", len(nomes), len(simbolos))
	}
	for i, nome := range nomes {
		if simbolos[i].Nome != nome {
			t.Errorf("posição %d: esperado %s, encontrado %s", i, nome, simbolos[i].Nome)
		}
	}
}
