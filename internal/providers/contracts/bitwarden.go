package contracts

import "context"

// BitwardenClient lists the vault items visible to an API token.
type BitwardenClient interface {
	ListItems(ctx context.Context) ([]BitwardenItem, error)
}

// BitwardenItem is a vault item ("cipher") as returned by the Bitwarden API.
type BitwardenItem struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Notes  string           `json:"notes"`
	Login  *BitwardenLogin  `json:"login,omitempty"`
	Fields []BitwardenField `json:"fields,omitempty"`
}

// BitwardenLogin holds the login portion of an item.
type BitwardenLogin struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// BitwardenField is a custom field on an item.
type BitwardenField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Type  int    `json:"type"`
}
