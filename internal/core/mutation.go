package core

// Mutation names a committed write that downstream consumers, primarily the
// cache coherence layer, react to.
type Mutation string

const (
	MutationCategory    Mutation = "category"
	MutationSubcategory Mutation = "subcategory"
	MutationExpense     Mutation = "expense"
	MutationCollection  Mutation = "collection"
	MutationPayment     Mutation = "payment"
	MutationBalance     Mutation = "balance"
)

func (m Mutation) Valid() bool {
	switch m {
	case MutationCategory, MutationSubcategory, MutationExpense,
		MutationCollection, MutationPayment, MutationBalance:
		return true
	default:
		return false
	}
}
