// Package item defines the single resource managed by itemd.
package item

// Item is one entry of the collection. ID is assigned by the service on
// creation and never changes afterwards.
type Item struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	IsComplete  bool    `json:"isComplete"`
}

// Fields holds everything a client may supply when creating an item.
type Fields struct {
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	IsComplete  bool    `json:"isComplete"`
}

// New builds an item from fields and an already generated id.
func New(id string, f Fields) Item {
	return Item{
		ID:          id,
		Title:       f.Title,
		Price:       f.Price,
		Category:    f.Category,
		Description: f.Description,
		IsComplete:  f.IsComplete,
	}
}

// Patch is a partial update. Nil fields are left untouched by Apply.
// It has no ID field since ids are immutable.
type Patch struct {
	Title       *string  `json:"title,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Description *string  `json:"description,omitempty"`
	IsComplete  *bool    `json:"isComplete,omitempty"`
}

// IsEmpty reports whether the patch carries no field at all.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Price == nil && p.Category == nil && p.Description == nil && p.IsComplete == nil
}

// Apply returns a copy of it with every present field of p merged in.
func (p Patch) Apply(it Item) Item {
	if p.Title != nil {
		it.Title = *p.Title
	}
	if p.Price != nil {
		it.Price = *p.Price
	}
	if p.Category != nil {
		it.Category = *p.Category
	}
	if p.Description != nil {
		it.Description = *p.Description
	}
	if p.IsComplete != nil {
		it.IsComplete = *p.IsComplete
	}
	return it
}

// Index returns the position of the item with the given id, or -1.
func Index(items []Item, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

// Stats counts completed and pending items.
func Stats(items []Item) (done, pending int) {
	for _, it := range items {
		if it.IsComplete {
			done++
		} else {
			pending++
		}
	}
	return done, pending
}
