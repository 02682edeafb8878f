package commands

import (
	"context"
	"log/slog"
	"strings"

	application "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/application"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/entities"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/errors"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/ports"
)

type CommissionMemberInput struct {
	MemberID string
	Name     string
	Role     entities.MemberRole
	Active   bool
}

type CreateCommissionCommand struct {
	Name    string
	Members []CommissionMemberInput
	Actor   string
}

type RegisterCaseCommand struct {
	Kind       entities.CaseKind
	Subject    string
	ElectionID string
	Remedy     entities.Remedy
	Actor      string
}

type FileAppealCommand struct {
	OriginalCaseID string
	Subject        string
	Remedy         entities.Remedy
	Actor          string
}

type CaseUseCase struct {
	Commissions ports.CommissionRepository
	Cases       ports.CaseRepository
	Verdicts    ports.VerdictRepository
	Audit       ports.AuditSink
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

// CreateCommission accepts at most one active President.
func (uc CaseUseCase) CreateCommission(ctx context.Context, cmd CreateCommissionCommand) (entities.Commission, error) {
	logger := application.ResolveLogger(uc.Logger)
	name := strings.TrimSpace(cmd.Name)
	if name == "" || len(cmd.Members) == 0 {
		return entities.Commission{}, domainerrors.ErrInvalidInput
	}
	members := make([]entities.CommissionMember, 0, len(cmd.Members))
	seen := make(map[string]bool, len(cmd.Members))
	presidents := 0
	for _, input := range cmd.Members {
		memberID := strings.TrimSpace(input.MemberID)
		if memberID == "" || seen[memberID] || !input.Role.Valid() {
			return entities.Commission{}, domainerrors.ErrInvalidInput
		}
		seen[memberID] = true
		if input.Active && input.Role == entities.RolePresident {
			presidents++
		}
		members = append(members, entities.CommissionMember{
			MemberID: memberID,
			Name:     strings.TrimSpace(input.Name),
			Role:     input.Role,
			Active:   input.Active,
		})
	}
	if presidents > 1 {
		return entities.Commission{}, domainerrors.ErrInvalidInput
	}

	commissionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Commission{}, err
	}
	commission := entities.Commission{CommissionID: commissionID, Name: name, Members: members}
	if err := uc.Commissions.CreateCommission(ctx, commission); err != nil {
		logger.Error("commission create failed",
			"event", "judgment_commission_create_failed",
			"module", moduleName,
			"layer", "application",
			"error", err.Error(),
		)
		return entities.Commission{}, err
	}
	recordAudit(ctx, uc.Audit, uc.IDGen, logger, resolveNow(uc.Clock), auditRecord{
		Action:     "commission.created",
		EntityType: "commission",
		EntityID:   commissionID,
		Actor:      strings.TrimSpace(cmd.Actor),
	})
	logger.Info("commission created",
		"event", "judgment_commission_created",
		"module", moduleName,
		"layer", "application",
		"commission_id", commissionID,
		"active_members", commission.ActiveCount(),
	)
	return commission, nil
}

func (uc CaseUseCase) RegisterCase(ctx context.Context, cmd RegisterCaseCommand) (entities.Case, error) {
	if cmd.Kind == entities.CaseKindAppeal || !cmd.Kind.Valid() {
		return entities.Case{}, domainerrors.ErrInvalidInput
	}
	return uc.create(ctx, entities.Case{
		Kind:       cmd.Kind,
		Subject:    cmd.Subject,
		ElectionID: cmd.ElectionID,
		Remedy:     cmd.Remedy,
		CreatedBy:  cmd.Actor,
	})
}

// FileAppeal opens an appellate case against a decided case. The original
// verdict is never edited.
func (uc CaseUseCase) FileAppeal(ctx context.Context, cmd FileAppealCommand) (entities.Case, error) {
	originalID := strings.TrimSpace(cmd.OriginalCaseID)
	if originalID == "" {
		return entities.Case{}, domainerrors.ErrInvalidInput
	}
	original, err := uc.Cases.GetCase(ctx, originalID)
	if err != nil {
		return entities.Case{}, err
	}
	if original.State != entities.CaseDecided {
		return entities.Case{}, domainerrors.ErrCaseNotDecided
	}
	if _, err := uc.Verdicts.GetVerdictByCase(ctx, originalID); err != nil {
		return entities.Case{}, err
	}
	return uc.create(ctx, entities.Case{
		Kind:       entities.CaseKindAppeal,
		Subject:    cmd.Subject,
		ElectionID: original.ElectionID,
		AppealOf:   original.CaseID,
		Remedy:     cmd.Remedy,
		CreatedBy:  cmd.Actor,
	})
}

func (uc CaseUseCase) create(ctx context.Context, c entities.Case) (entities.Case, error) {
	logger := application.ResolveLogger(uc.Logger)
	c.Subject = strings.TrimSpace(c.Subject)
	c.ElectionID = strings.TrimSpace(c.ElectionID)
	c.CreatedBy = strings.TrimSpace(c.CreatedBy)
	if c.Remedy.Action == "" {
		c.Remedy.Action = entities.RemedyNone
	}
	if c.Subject == "" || !c.Remedy.Valid() {
		return entities.Case{}, domainerrors.ErrInvalidInput
	}
	if c.Remedy.Action != entities.RemedyNone && c.ElectionID == "" {
		return entities.Case{}, domainerrors.ErrInvalidInput
	}

	caseID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Case{}, err
	}
	now := resolveNow(uc.Clock)
	c.CaseID = caseID
	c.State = entities.CaseScheduled
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := uc.Cases.CreateCase(ctx, c); err != nil {
		logger.Error("case create failed",
			"event", "judgment_case_create_failed",
			"module", moduleName,
			"layer", "application",
			"error", err.Error(),
		)
		return entities.Case{}, err
	}
	details := map[string]string{"kind": string(c.Kind), "remedy": string(c.Remedy.Action)}
	if c.AppealOf != "" {
		details["appeal_of"] = c.AppealOf
	}
	if c.ElectionID != "" {
		details["election_id"] = c.ElectionID
	}
	recordAudit(ctx, uc.Audit, uc.IDGen, logger, now, auditRecord{
		Action:     "case.registered",
		EntityType: "case",
		EntityID:   caseID,
		Actor:      c.CreatedBy,
		Details:    details,
	})
	logger.Info("case registered",
		"event", "judgment_case_registered",
		"module", moduleName,
		"layer", "application",
		"case_id", caseID,
		"kind", string(c.Kind),
		"appeal_of", c.AppealOf,
	)
	return c, nil
}
