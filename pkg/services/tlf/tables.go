package tlf

import (
	"context"
	"strings"

	"github.com/de-tools/tlf-atlas/pkg/models/domain"
	"github.com/de-tools/tlf-atlas/pkg/services/ard"
)

const (
	aeDataset = "adae"
	cmDataset = "adcm"

	aeTerm = "AEDECOD"
	aeSOC  = "AESOC"
	cmTerm = "CMDECOD"

	dispositionStatus = "EOSSTT"
	dispositionReason = "DCREASCD"
)

var countFootnote = []string{"Every participant is counted a single time for each applicable row and column."}

func (s *Service) aeSummary(ctx context.Context, plan domain.IndividualPlan) (domain.Artifact, error) {
	r, err := s.resolve(ctx, plan, aeDataset)
	if err != nil {
		return nil, wrap(plan, err)
	}

	var variables []ard.Variable
	if plan.Parameter == "" {
		variables = []ard.Variable{{Label: "with one or more adverse events"}}
	} else {
		info, err := s.study.ParameterInfo(plan.Parameter)
		if err != nil {
			return nil, wrap(plan, err)
		}
		for i := range info.Names {
			variables = append(variables, ard.Variable{Filter: info.Filters[i], Label: info.Labels[i]})
		}
	}

	a, err := s.ard.AESummary(ctx, r.input(r.observation.Filter, s.countOptions(r.group)), variables)
	if err != nil {
		return nil, wrap(plan, err)
	}
	display := ard.ToDisplay(a, "")
	return &domain.TableArtifact{
		ID:      plan.ID(),
		Render:  tableSpec(r.titles("Analysis of Adverse Event Summary", ""), display, countFootnote),
		ARD:     a,
		Display: display,
	}, nil
}

func (s *Service) aeSpecific(ctx context.Context, plan domain.IndividualPlan) (domain.Artifact, error) {
	r, err := s.resolve(ctx, plan, aeDataset)
	if err != nil {
		return nil, wrap(plan, err)
	}

	obsFilter := r.observation.Filter
	var paramLabel string
	if plan.Parameter != "" {
		info, err := s.study.ParameterInfo(plan.Parameter)
		if err != nil {
			return nil, wrap(plan, err)
		}
		obsFilter = allOf(obsFilter, anyOf(info.Filters...))
		paramLabel = strings.Join(info.Labels, "; ")
	}

	soc, header := "", "Preferred Term"
	if r.events.HasColumn(aeSOC) {
		soc, header = aeSOC, "System Organ Class / Preferred Term"
	}
	a, err := s.ard.AESpecific(ctx, r.input(obsFilter, s.countOptions(r.group)), aeTerm, soc)
	if err != nil {
		return nil, wrap(plan, err)
	}
	display := ard.ToDisplay(a, header)
	return &domain.TableArtifact{
		ID:      plan.ID(),
		Render:  tableSpec(r.titles("Participants With Adverse Events by System Organ Class and Preferred Term", paramLabel), display, countFootnote),
		ARD:     a,
		Display: display,
	}, nil
}

func (s *Service) cmSummary(ctx context.Context, plan domain.IndividualPlan) (domain.Artifact, error) {
	r, err := s.resolve(ctx, plan, cmDataset)
	if err != nil {
		return nil, wrap(plan, err)
	}
	a, err := s.ard.CMSummary(ctx, r.input(r.observation.Filter, s.countOptions(r.group)), cmTerm)
	if err != nil {
		return nil, wrap(plan, err)
	}
	display := ard.ToDisplay(a, "Medication")
	return &domain.TableArtifact{
		ID:      plan.ID(),
		Render:  tableSpec(r.titles("Summary of Concomitant Medications", ""), display, nil),
		ARD:     a,
		Display: display,
	}, nil
}

func (s *Service) disposition(ctx context.Context, plan domain.IndividualPlan) (domain.Artifact, error) {
	r, err := s.resolve(ctx, plan, "")
	if err != nil {
		return nil, wrap(plan, err)
	}
	a, err := s.ard.Disposition(ctx, r.input("", s.countOptions(r.group)), ard.DispositionTerms{
		Status: dispositionStatus,
		Reason: dispositionReason,
	})
	if err != nil {
		return nil, wrap(plan, err)
	}
	display := ard.ToDisplay(a, "Disposition Status")
	return &domain.TableArtifact{
		ID:      plan.ID(),
		Render:  tableSpec(r.titles("Disposition of Participants", ""), display, nil),
		ARD:     a,
		Display: display,
	}, nil
}
