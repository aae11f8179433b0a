package postgres

import (
	"context"

	"dreamsite/internal/gateway"
)

func (p *PostgresClient) InsertTestimonial(ctx context.Context, content string) (*TestimonialRecord, error) {
	record := &TestimonialRecord{Content: content}
	if err := p.DB.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// ListTestimonials returns every row, newest first.
func (p *PostgresClient) ListTestimonials(ctx context.Context) ([]gateway.Testimonial, error) {
	var records []TestimonialRecord
	err := p.DB.WithContext(ctx).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	rows := make([]gateway.Testimonial, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Testimonial())
	}
	return rows, nil
}

// DeleteTestimonial removes the row with id. A missing id is not an error.
func (p *PostgresClient) DeleteTestimonial(ctx context.Context, id string) error {
	return p.DB.WithContext(ctx).
		Where("id = ?", id).
		Delete(&TestimonialRecord{}).Error
}
