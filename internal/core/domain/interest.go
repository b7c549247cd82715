package domain

// Interest is a lookup record users attach to their profile and events
// attach as categories.
type Interest struct {
	ID       string `json:"id" bson:"_id,omitempty"`
	Name     string `json:"name" bson:"name"`
	Category string `json:"category,omitempty" bson:"category,omitempty"`
}
