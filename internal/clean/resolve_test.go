package clean

import (
	"testing"

	"github.com/listclean/listclean/internal/tabular"
)

func makeRow(pairs ...string) tabular.Row {
	row := tabular.Row{Values: make(map[string]string, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		row.Headers = append(row.Headers, pairs[i])
		row.Values[pairs[i]] = pairs[i+1]
	}
	return row
}

func TestResolveEmail(t *testing.T) {
	tests := []struct {
		name   string
		row    tabular.Row
		want   string
		wantOK bool
	}{
		{
			name:   "exact header",
			row:    makeRow("Email", "a@x.com"),
			want:   "a@x.com",
			wantOK: true,
		},
		{
			name:   "substring match",
			row:    makeRow("Work Email Address", "w@x.com"),
			want:   "w@x.com",
			wantOK: true,
		},
		{
			name:   "case insensitive",
			row:    makeRow("EMAIL", "u@x.com"),
			want:   "u@x.com",
			wantOK: true,
		},
		{
			name:   "first matching header wins",
			row:    makeRow("Name", "Ann", "Primary Email", "p@x.com", "Backup Email", "b@x.com"),
			want:   "p@x.com",
			wantOK: true,
		},
		{
			name:   "no email header",
			row:    makeRow("Name", "Ann", "Phone", "555"),
			want:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveEmail(tt.row)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ResolveEmail() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestResolveName(t *testing.T) {
	tests := []struct {
		name string
		row  tabular.Row
		want string
	}{
		{
			name: "exact name header",
			row:  makeRow("Name", "Ann Ames"),
			want: "Ann Ames",
		},
		{
			name: "full name header",
			row:  makeRow("Full Name", "Bo Burke"),
			want: "Bo Burke",
		},
		{
			name: "fullname one word",
			row:  makeRow("FULLNAME", "Cy Cole"),
			want: "Cy Cole",
		},
		{
			name: "first plus last",
			row:  makeRow("First Name", "Ann", "Last Name", "Ames"),
			want: "Ann Ames",
		},
		{
			name: "firstname lastname variant",
			row:  makeRow("FirstName", "Bo", "LastName", "Burke"),
			want: "Bo Burke",
		},
		{
			name: "first name only",
			row:  makeRow("First Name", "Ann"),
			want: "Ann",
		},
		{
			name: "first plus empty last trims",
			row:  makeRow("First Name", "Ann", "Last Name", ""),
			want: "Ann",
		},
		{
			name: "fuzzy fallback",
			row:  makeRow("Customer Name", "Dee Dole"),
			want: "Dee Dole",
		},
		{
			name: "fuzzy skips email and file headers",
			row:  makeRow("Email Name", "x", "File Name", "y", "Account Name", "Eve"),
			want: "Eve",
		},
		{
			name: "exact beats first-last combination",
			row:  makeRow("First Name", "Ann", "Last Name", "Ames", "Name", "A. Ames"),
			want: "A. Ames",
		},
		{
			name: "first-last beats fuzzy",
			row:  makeRow("Account Name", "Corp", "First Name", "Ann", "Last Name", "Ames"),
			want: "Ann Ames",
		},
		{
			name: "nothing matches",
			row:  makeRow("Email", "a@x.com", "Phone", "555"),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveName(tt.row); got != tt.want {
				t.Errorf("ResolveName() = %q, want %q", got, tt.want)
			}
		})
	}
}
