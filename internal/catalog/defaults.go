package catalog

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultStore creates the shared catalog entries visible to every user.
type DefaultStore interface {
	CountDefaults(ctx context.Context) (int64, error)
	CreateDefault(ctx context.Context, in Input) (CatalogService, error)
}

// Defaults is the starter catalog offered to new accounts.
func Defaults() []Input {
	return []Input{
		{
			Name:        "Website Institucional",
			Description: "Site responsivo com até 5 páginas e formulário de contato.",
			BasePrice:   decimal.NewFromInt(3500),
			Features:    []string{"Layout responsivo", "Até 5 páginas", "Formulário de contato", "SEO básico"},
			Category:    "Desenvolvimento",
			Icon:        "globe",
			BillingType: "one_time",
		},
		{
			Name:        "Loja Virtual",
			Description: "E-commerce completo com catálogo, carrinho e pagamentos.",
			BasePrice:   decimal.NewFromInt(8900),
			Features:    []string{"Catálogo de produtos", "Carrinho", "Integração de pagamentos", "Painel administrativo"},
			Category:    "Desenvolvimento",
			Icon:        "shopping-cart",
			BillingType: "one_time",
		},
		{
			Name:        "Identidade Visual",
			Description: "Logotipo, paleta de cores e manual de marca.",
			BasePrice:   decimal.NewFromInt(2200),
			Features:    []string{"Logotipo", "Paleta de cores", "Tipografia", "Manual de marca"},
			Category:    "Design",
			Icon:        "palette",
			BillingType: "one_time",
		},
		{
			Name:        "Gestão de Redes Sociais",
			Description: "Planejamento e publicação mensal de conteúdo.",
			BasePrice:   decimal.NewFromInt(1500),
			Features:    []string{"12 posts por mês", "Calendário editorial", "Relatório mensal"},
			Category:    "Marketing",
			Icon:        "share-2",
			BillingType: "monthly",
		},
		{
			Name:        "Hospedagem e Manutenção",
			Description: "Hospedagem gerenciada, backups e atualizações.",
			BasePrice:   decimal.NewFromInt(250),
			Features:    []string{"Hospedagem gerenciada", "Backups diários", "Atualizações de segurança"},
			Category:    "Infraestrutura",
			Icon:        "server",
			BillingType: "monthly",
		},
		{
			Name:        "Tráfego Pago",
			Description: "Gestão de campanhas em Google Ads e Meta Ads.",
			BasePrice:   decimal.NewFromInt(1200),
			Features:    []string{"Configuração de campanhas", "Otimização semanal", "Relatório de desempenho"},
			Category:    "Marketing",
			Icon:        "trending-up",
			BillingType: "monthly",
		},
	}
}

// SeedDefaults inserts Defaults when no shared entry exists yet. It returns how many entries
// were created.
func SeedDefaults(ctx context.Context, store DefaultStore) (int, error) {
	existing, err := store.CountDefaults(ctx)
	if err != nil {
		return 0, fmt.Errorf("count default services: %w", err)
	}
	if existing > 0 {
		return 0, nil
	}
	created := 0
	for _, in := range Defaults() {
		normalized, err := normalize(in)
		if err != nil {
			return created, fmt.Errorf("default service %q: %w", in.Name, err)
		}
		if _, err := store.CreateDefault(ctx, normalized); err != nil {
			return created, fmt.Errorf("create default service %q: %w", in.Name, err)
		}
		created++
	}
	return created, nil
}
