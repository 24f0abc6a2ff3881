package records

type Contact struct {
	Record
	Name      string  `gorm:"column:name;not null;size:200" json:"name"`
	Email     *string `gorm:"column:email;size:320" json:"email"`
	Phone     *string `gorm:"column:phone;size:40" json:"phone"`
	CompanyID *string `gorm:"column:company_id;size:36;index" json:"companyId"`
	Notes     *string `gorm:"column:notes" json:"notes"`
}

func (Contact) TableName() string { return "contacts" }

type Company struct {
	Record
	Name     string  `gorm:"column:name;not null;size:200" json:"name"`
	Domain   *string `gorm:"column:domain;size:253" json:"domain"`
	Industry *string `gorm:"column:industry;size:100" json:"industry"`
	Country  *string `gorm:"column:country;size:2" json:"country"`
}

func (Company) TableName() string { return "companies" }

type Invoice struct {
	Record
	Number      string  `gorm:"column:number;not null;size:64" json:"number"`
	ContactID   *string `gorm:"column:contact_id;size:36;index" json:"contactId"`
	Currency    string  `gorm:"column:currency;not null;size:3" json:"currency"`
	AmountCents int64   `gorm:"column:amount_cents;not null" json:"amountCents"`
	DueDate     *string `gorm:"column:due_date;size:10" json:"dueDate"`
	Status      string  `gorm:"column:status;not null;size:16" json:"status"`
}

func (Invoice) TableName() string { return "invoices" }
