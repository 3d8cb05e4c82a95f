package registry

// AssinaturaIntrinseco define a assinatura de um procedimento
// intrínseco da linguagem, disponível sem declaração no fonte
type AssinaturaIntrinseco struct {
	Nome          string
	MinArgumentos int
	MaxArgumentos int // -1 para ilimitado
	Variadico     bool
	Descricao     string
}

// RegistroIntrinsecos mantém os intrínsecos registrados
type RegistroIntrinsecos struct {
	procedimentos map[string]AssinaturaIntrinseco
}

// NovoRegistroIntrinsecos cria um registro com os intrínsecos padrão
func NovoRegistroIntrinsecos() *RegistroIntrinsecos {
	registro := &RegistroIntrinsecos{
		procedimentos: make(map[string]AssinaturaIntrinseco),
	}

	registro.registrar(AssinaturaIntrinseco{
		Nome:          "print",
		MinArgumentos: 1,
		MaxArgumentos: -1,
		Variadico:     true,
		Descricao:     "imprime os argumentos via printf; aceita string de formato com {}",
	})

	return registro
}

// registrar adiciona uma assinatura ao registro
func (r *RegistroIntrinsecos) registrar(assinatura AssinaturaIntrinseco) {
	r.procedimentos[assinatura.Nome] = assinatura
}

// ObterAssinatura retorna a assinatura de um intrínseco
func (r *RegistroIntrinsecos) ObterAssinatura(nome string) (AssinaturaIntrinseco, bool) {
	assinatura, ok := r.procedimentos[nome]
	return assinatura, ok
}

// EIntrinseco verifica se o nome é um intrínseco da linguagem
func (r *RegistroIntrinsecos) EIntrinseco(nome string) bool {
	_, ok := r.procedimentos[nome]
	return ok
}

// RegistroGlobal é o registro compartilhado pelo analisador e pelo
// gerador de código
var RegistroGlobal = NovoRegistroIntrinsecos()
