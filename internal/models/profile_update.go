package models

// ProfileUpdate частичное обновление профиля. nil означает «поле не менять».
type ProfileUpdate struct {
	Name        *string
	PhoneNumber *string
	Gender      *string
	DateOfBirth *string
	Image       *string
	CompanyName *string
	Dealership  *string
	UserAddress *string
	City        *string
	Country     *string
	PostCode    *string
	VATID       *string
	Street      *string
	VATType     *string
}

// Empty сообщает, что в обновлении нет ни одного поля.
func (p ProfileUpdate) Empty() bool {
	for _, v := range p.fields() {
		if v.value != nil {
			return false
		}
	}
	return true
}

type profileField struct {
	column string
	value  *string
}

func (p ProfileUpdate) fields() []profileField {
	return []profileField{
		{"name", p.Name},
		{"phone_number", p.PhoneNumber},
		{"gender", p.Gender},
		{"date_of_birth", p.DateOfBirth},
		{"image", p.Image},
		{"company_name", p.CompanyName},
		{"dealership", p.Dealership},
		{"user_address", p.UserAddress},
		{"dealer_city", p.City},
		{"dealer_country", p.Country},
		{"dealer_post_code", p.PostCode},
		{"dealer_vat_id", p.VATID},
		{"dealer_street", p.Street},
		{"vat_type", p.VATType},
	}
}

// Columns возвращает пары «колонка: значение» только для заданных полей,
// в стабильном порядке.
func (p ProfileUpdate) Columns() ([]string, []any) {
	var cols []string
	var vals []any
	for _, f := range p.fields() {
		if f.value == nil {
			continue
		}
		cols = append(cols, f.column)
		vals = append(vals, *f.value)
	}
	return cols, vals
}
