package infrastructure

import (
	"github.com/Victor-armando18/service-rules/internal/domain"
)

// EntityLabelResolver implements the label lookup used by the engine.
//
// Orders are resolved to their customer; prices, customers, professionals and
// templates are evaluated on their own labels; every other kind has no labels.
type EntityLabelResolver struct{}

func NewEntityLabelResolver() *EntityLabelResolver {
	return &EntityLabelResolver{}
}

func (r *EntityLabelResolver) Resolve(subject domain.Subject) (domain.Subject, domain.LabelSet) {
	switch domain.KindOf(subject) {
	case domain.SubjectOrder:
		order, ok := subject.(*domain.Order)
		if !ok || order == nil || order.Customer == nil {
			return nil, domain.NewLabelSet()
		}
		return order.Customer, order.Customer.LabelSet()
	case domain.SubjectPrice, domain.SubjectCustomer, domain.SubjectProfessional, domain.SubjectTemplate:
		if l, ok := subject.(domain.Labeled); ok {
			return subject, l.LabelSet()
		}
		return subject, domain.NewLabelSet()
	case domain.SubjectItem, domain.SubjectService, domain.SubjectUnknown:
		return subject, domain.NewLabelSet()
	}
	return subject, domain.NewLabelSet()
}
