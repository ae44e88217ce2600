package reportsvc

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"propertyhub/model"
	leaserepo "propertyhub/repository/lease"
	tenantrepo "propertyhub/repository/tenant"
	unitrepo "propertyhub/repository/unit"
	"propertyhub/util/apperr"
	"propertyhub/util/database"
)

const sheet = "Leases"

var headers = []string{"Lease ID", "Room", "Tenant", "Tenant Email", "Start", "End", "Rent", "Deposit", "Status"}

type Service interface {
	// LeasesWorkbook renders leases (optionally one status) as an XLSX file.
	LeasesWorkbook(ctx context.Context, status *model.LeaseStatus) ([]byte, error)
}

type service struct {
	db      database.Querier
	leases  leaserepo.Repo
	units   unitrepo.Repo
	tenants tenantrepo.Repo
}

func New(db database.Querier, leases leaserepo.Repo, units unitrepo.Repo, tenants tenantrepo.Repo) Service {
	return &service{db: db, leases: leases, units: units, tenants: tenants}
}

func (s *service) LeasesWorkbook(ctx context.Context, status *model.LeaseStatus) ([]byte, error) {
	ls, err := s.leases.List(ctx, s.db, leaserepo.Filter{Status: status})
	if err != nil {
		return nil, err
	}
	units, err := s.units.List(ctx, s.db, nil)
	if err != nil {
		return nil, err
	}
	tenants, err := s.tenants.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	rooms := make(map[int64]string, len(units))
	for _, u := range units {
		rooms[u.ID] = u.RoomNumber
	}
	people := make(map[int64]model.Tenant, len(tenants))
	for _, t := range tenants {
		people[t.ID] = t
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "B", "D", 22); err != nil {
		return nil, err
	}

	for i, l := range ls {
		t := people[l.TenantID]
		row := []any{
			l.ID,
			rooms[l.UnitID],
			t.FullName(),
			t.Email,
			l.StartDate.Format(time.DateOnly),
			l.EndDate.Format(time.DateOnly),
			l.RentAmount.InexactFloat64(),
			l.SecurityDeposit.InexactFloat64(),
			string(l.Status),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseStatus turns an optional query value into a filter.
func ParseStatus(raw string) (*model.LeaseStatus, error) {
	if raw == "" {
		return nil, nil
	}
	st := model.LeaseStatus(raw)
	switch st {
	case model.LeasePending, model.LeaseActive, model.LeaseExpired, model.LeaseTerminated:
		return &st, nil
	}
	return nil, apperr.BadInput("unknown lease status %q", raw)
}
