package domain

// Gig is a ticketed concert, keyed by Slug. The pipeline never mutates it.
type Gig struct {
	Slug            string  `json:"slug" dynamodbav:"slug" yaml:"slug"`
	BandName        string  `json:"bandName" dynamodbav:"bandName" yaml:"bandName"`
	Year            int     `json:"year,omitempty" dynamodbav:"year,omitempty" yaml:"year"`
	City            string  `json:"city" dynamodbav:"city" yaml:"city"`
	Date            string  `json:"date" dynamodbav:"date" yaml:"date"`
	Venue           string  `json:"venue,omitempty" dynamodbav:"venue,omitempty" yaml:"venue"`
	CollectionPoint string  `json:"collectionPoint" dynamodbav:"collectionPoint" yaml:"collectionPoint"`
	CollectionTime  string  `json:"collectionTime" dynamodbav:"collectionTime" yaml:"collectionTime"`
	Capacity        int     `json:"capacity" dynamodbav:"capacity" yaml:"capacity"`
	Price           float64 `json:"price" dynamodbav:"price" yaml:"price"`
	Image           string  `json:"image,omitempty" dynamodbav:"image,omitempty" yaml:"image"`
	Description     string  `json:"description,omitempty" dynamodbav:"description,omitempty" yaml:"description"`
}
