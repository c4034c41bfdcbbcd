package booking

// TravelerDetail holds the identity data collected for one traveler on a
// booking. Stored as an opaque document alongside the booking row.
type TravelerDetail struct {
	FullName       string `json:"full_name"`
	DateOfBirth    string `json:"date_of_birth"`
	PassportNumber string `json:"passport_number"`
	Nationality    string `json:"nationality"`
}
