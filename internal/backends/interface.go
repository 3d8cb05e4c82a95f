package backends

import "github.com/khevencolino/Ziget/internal/parser"

// Backend transforma a árvore validada na representação final do
// compilador. O gerador assume uma árvore bem tipada: qualquer falha
// aqui é violação de invariante interna.
type Backend interface {
	Compile(programa *parser.Programa) (string, error)
	GetName() string
	GetExtension() string
}
