package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/loan-intake/internal/core/domain"
	"github.com/kirillkom/loan-intake/internal/core/ports"
)

// ArchiveEventUseCase is the worker-side consumer of application events:
// every event row goes to the audit archive, and on first processing the raw
// document payloads are copied to retention storage. The archive is
// downstream of the store and can never influence a transition.
type ArchiveEventUseCase struct {
	archive  ports.AuditArchive
	payloads ports.PayloadArchive
}

func NewArchiveEventUseCase(archive ports.AuditArchive, payloads ports.PayloadArchive) *ArchiveEventUseCase {
	return &ArchiveEventUseCase{
		archive:  archive,
		payloads: payloads,
	}
}

func (uc *ArchiveEventUseCase) HandleEvent(ctx context.Context, event domain.ApplicationEvent) error {
	if err := uc.archive.SaveEvent(ctx, event); err != nil {
		return fmt.Errorf("archive event: %w", err)
	}

	if uc.payloads == nil || event.Action != domain.AuditActionProcessed {
		return nil
	}
	for docType, doc := range event.Application.Documents {
		uri, err := domain.ParseDataURI(doc.Content)
		if err != nil {
			return fmt.Errorf("parse payload for %s: %w", docType, err)
		}
		raw, err := uri.DecodePayload()
		if err != nil {
			return fmt.Errorf("decode payload for %s: %w", docType, err)
		}
		key := fmt.Sprintf("%s_%s_%s", event.Application.ID, docType, doc.Name)
		if err := uc.payloads.SavePayload(ctx, key, raw); err != nil {
			return fmt.Errorf("store payload for %s: %w", docType, err)
		}
	}
	return nil
}
