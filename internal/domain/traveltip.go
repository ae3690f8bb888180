package domain

// TravelTip is a resolved advice block for one country+section, e.g.
// ("tanzania", "visas"). Title/Intro/Items come out of per-locale columns.
type TravelTip struct {
	Country  string
	Section  string
	Title    string
	Intro    string
	Items    []string
	CTALabel string
	CTAHref  string
	Locale   string
}

// ContactMessage is a submitted contact-form payload after validation.
type ContactMessage struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	TripType  string
	Travelers string
	Budget    string
	Message   string
}
