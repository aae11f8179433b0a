package postgres

import (
	"time"

	"dreamsite/internal/gateway"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TestimonialRecord is one row of the testimonials table.
type TestimonialRecord struct {
	ID        string    `gorm:"type:text;primaryKey"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime;index:idx_testimonials_created_at,sort:desc"`
}

// TableName overrides the default table name for GORM.
func (TestimonialRecord) TableName() string {
	return gateway.TableName
}

// BeforeCreate assigns the row id.
func (r *TestimonialRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (r TestimonialRecord) Testimonial() gateway.Testimonial {
	return gateway.Testimonial{
		ID:        r.ID,
		Content:   r.Content,
		CreatedAt: r.CreatedAt.UTC(),
	}
}
