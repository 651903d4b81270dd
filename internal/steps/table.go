package steps

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cucumber/godog"

	"bookerbdd/internal/client"
)

// Columns of the booking data table.
const (
	colFirstname       = "firstname"
	colLastname        = "lastname"
	colTotalPrice      = "totalprice"
	colDepositPaid     = "depositpaid"
	colCheckin         = "checkin"
	colCheckout        = "checkout"
	colAdditionalNeeds = "additionalneeds"
)

var bookingColumns = []string{
	colFirstname,
	colLastname,
	colTotalPrice,
	colDepositPaid,
	colCheckin,
	colCheckout,
	colAdditionalNeeds,
}

// singleRow reads a header row plus exactly one data row and checks that
// every required column is present.
func singleRow(table *godog.Table, required ...string) (map[string]string, error) {
	if table == nil || len(table.Rows) == 0 {
		return nil, fmt.Errorf("expected a data table with a header row")
	}
	if n := len(table.Rows) - 1; n != 1 {
		return nil, fmt.Errorf("expected exactly one data row, got %d", n)
	}

	header, data := table.Rows[0].Cells, table.Rows[1].Cells
	if len(header) != len(data) {
		return nil, fmt.Errorf("data row has %d cells, header has %d", len(data), len(header))
	}

	row := make(map[string]string, len(header))
	for i, cell := range header {
		row[strings.TrimSpace(cell.Value)] = data[i].Value
	}
	for _, col := range required {
		if _, ok := row[col]; !ok {
			return nil, fmt.Errorf("data table is missing column %q", col)
		}
	}
	return row, nil
}

// bookingFromTable builds a booking payload. totalprice must be an integer;
// depositpaid is true only for a case-insensitive "true".
func bookingFromTable(table *godog.Table) (client.Booking, error) {
	row, err := singleRow(table, bookingColumns...)
	if err != nil {
		return client.Booking{}, err
	}

	price, err := strconv.Atoi(strings.TrimSpace(row[colTotalPrice]))
	if err != nil {
		return client.Booking{}, fmt.Errorf("totalprice %q is not an integer: %w", row[colTotalPrice], err)
	}

	return client.Booking{
		Firstname:   row[colFirstname],
		Lastname:    row[colLastname],
		TotalPrice:  price,
		DepositPaid: strings.EqualFold(strings.TrimSpace(row[colDepositPaid]), "true"),
		BookingDates: client.BookingDates{
			Checkin:  row[colCheckin],
			Checkout: row[colCheckout],
		},
		AdditionalNeeds: row[colAdditionalNeeds],
	}, nil
}

// namesFromTable reads the firstname/lastname table used by the filter and
// partial update steps.
func namesFromTable(table *godog.Table) (firstname, lastname string, err error) {
	row, err := singleRow(table, colFirstname, colLastname)
	if err != nil {
		return "", "", err
	}
	return row[colFirstname], row[colLastname], nil
}
