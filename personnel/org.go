package personnel

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/warp/duty-roster/core"
)

// =============================================================================
// ORGANIZATION STRUCTURE
// =============================================================================

// Department groups sections. It is the unit of the bulk org loader.
type Department struct {
	Name     string
	Sections []OrgSection
}

// OrgSection is a section with the designations postings to it may use.
type OrgSection struct {
	Name         string
	Designations []string
}

// OrgSummary counts what a load wrote.
type OrgSummary struct {
	Departments  int
	Sections     int
	Designations int
}

// AddDesignation registers a designation under an existing section.
func (d *Directory) AddDesignation(ctx context.Context, des core.Designation) error {
	des.Section = strings.TrimSpace(des.Section)
	des.Name = strings.TrimSpace(des.Name)
	des.Description = strings.TrimSpace(des.Description)
	switch {
	case des.Section == "":
		return core.Missing("section")
	case des.Name == "":
		return core.Missing("name")
	}

	err := d.store.WithTx(ctx, func(tx core.Tx) error {
		if _, err := tx.GetSection(ctx, des.Section); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return core.Invalid("section", "section %q does not exist", des.Section)
			}
			return err
		}
		return tx.SaveDesignation(ctx, des)
	})
	if err != nil {
		return err
	}

	d.logger.Info("designation saved", zap.String("section", des.Section), zap.String("designation", des.Name))
	return nil
}

// LoadOrgStructure upserts departments, their sections and designations in
// one transaction. Loading the same structure twice changes nothing.
func (d *Directory) LoadOrgStructure(ctx context.Context, departments []Department) (OrgSummary, error) {
	owner := make(map[string]string)
	clean := make([]Department, 0, len(departments))
	var summary OrgSummary
	for _, dept := range departments {
		name := strings.TrimSpace(dept.Name)
		if name == "" {
			return OrgSummary{}, core.Missing("department")
		}
		out := Department{Name: name}
		summary.Departments++

		for _, sec := range dept.Sections {
			secName := strings.TrimSpace(sec.Name)
			if secName == "" {
				return OrgSummary{}, core.Missing("section")
			}
			if other, ok := owner[secName]; ok {
				return OrgSummary{}, core.Invalid("section", "section %q is listed under %q and %q", secName, other, name)
			}
			owner[secName] = name
			summary.Sections++

			cleanSec := OrgSection{Name: secName}
			for _, des := range sec.Designations {
				des = strings.TrimSpace(des)
				if des == "" {
					return OrgSummary{}, core.Missing("designation")
				}
				cleanSec.Designations = append(cleanSec.Designations, des)
				summary.Designations++
			}
			out.Sections = append(out.Sections, cleanSec)
		}
		clean = append(clean, out)
	}

	err := d.store.WithTx(ctx, func(tx core.Tx) error {
		for _, dept := range clean {
			for _, sec := range dept.Sections {
				if err := tx.SaveSection(ctx, core.Section{Name: sec.Name, Department: dept.Name}); err != nil {
					return err
				}
				for _, name := range sec.Designations {
					if err := tx.SaveDesignation(ctx, core.Designation{Section: sec.Name, Name: name}); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return OrgSummary{}, fmt.Errorf("failed to load org structure: %w", err)
	}

	d.logger.Info("org structure loaded",
		zap.Int("departments", summary.Departments),
		zap.Int("sections", summary.Sections),
		zap.Int("designations", summary.Designations))
	return summary, nil
}

// OrgStructure returns departments ordered by name, each with its sections
// and their designations.
func (d *Directory) OrgStructure(ctx context.Context) ([]Department, error) {
	sections, err := d.store.ListSections(ctx)
	if err != nil {
		return nil, err
	}
	designations, err := d.store.ListDesignations(ctx, "")
	if err != nil {
		return nil, err
	}

	bySection := make(map[string][]string)
	for _, des := range designations {
		bySection[des.Section] = append(bySection[des.Section], des.Name)
	}

	// ListSections is ordered by department, so each department is one run.
	var result []Department
	for _, sec := range sections {
		if len(result) == 0 || result[len(result)-1].Name != sec.Department {
			result = append(result, Department{Name: sec.Department})
		}
		dept := &result[len(result)-1]
		dept.Sections = append(dept.Sections, OrgSection{Name: sec.Name, Designations: bySection[sec.Name]})
	}
	return result, nil
}

// resolveDesignation checks a posting's designation against its section's
// catalogue. Sections without designations accept any value. The
// catalogued spelling is returned on a case-insensitive match.
func resolveDesignation(ctx context.Context, tx core.Tx, section, designation string) (string, error) {
	if section == "" || designation == "" {
		return designation, nil
	}
	catalogued, err := tx.ListDesignations(ctx, section)
	if err != nil {
		return "", err
	}
	if len(catalogued) == 0 {
		return designation, nil
	}
	for _, des := range catalogued {
		if strings.EqualFold(des.Name, designation) {
			return des.Name, nil
		}
	}
	return "", core.Invalid("designation", "%q is not a designation of section %q", designation, section)
}
