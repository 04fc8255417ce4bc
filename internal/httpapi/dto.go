package httpapi

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"eden/internal/models"
	"eden/internal/money"
)

// postingDTO is a posting as the storefront reads it. Price is in the legacy
// storefront scale, DisplayPrice in pesos.
type postingDTO struct {
	ID               uint            `json:"id"`
	OwnerID          uint            `json:"owner_id"`
	Type             models.Kind     `json:"type"`
	Status           models.Status   `json:"status"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	HourlyRate       *float64        `json:"hourly_rate,omitempty"`
	Price            *float64        `json:"price,omitempty"`
	DisplayPrice     *money.Centavos `json:"display_price,omitempty"`
	Subcategory      *string         `json:"subcategory,omitempty"`
	SubcategoryLabel string          `json:"subcategory_label,omitempty"`
	ParentJobID      *uint           `json:"parent_job_id,omitempty"`
	ImagePath        string          `json:"image_path,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

func toPostingDTO(p *models.Posting) postingDTO {
	d := postingDTO{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Type:        p.Kind,
		Status:      p.Status,
		Title:       p.Title,
		Description: p.Description,
		HourlyRate:  p.HourlyRate,
		Subcategory: p.Subcategory,
		ParentJobID: p.ParentJobID,
		ImagePath:   p.ImagePath,
		CreatedAt:   p.CreatedAt,
	}
	if p.PriceCentavos != nil {
		c := money.Centavos(*p.PriceCentavos)
		legacy := c.LegacyPrice()
		d.Price = &legacy
		d.DisplayPrice = &c
	}
	if p.Subcategory != nil {
		// Caser keeps state; one per call
		d.SubcategoryLabel = cases.Title(language.English).String(*p.Subcategory)
	}
	return d
}

func toPostingDTOs(ps []models.Posting) []postingDTO {
	out := make([]postingDTO, 0, len(ps))
	for i := range ps {
		out = append(out, toPostingDTO(&ps[i]))
	}
	return out
}
