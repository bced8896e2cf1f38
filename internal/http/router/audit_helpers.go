package router

import (
	"net/http"

	"github.com/sftlabs/sft-registry/internal/auditlog"
	"github.com/sftlabs/sft-registry/internal/auth"
)

// recordAuditLog captures a best-effort trail entry for the calling
// identity. Failures are swallowed: the mutation already happened and
// the trail must not undo it.
func (a *api) recordAuditLog(
	r *http.Request,
	action string,
	targetType string,
	targetID string,
	before interface{},
	after interface{},
	metadata interface{},
) {
	if a.auditLogs == nil {
		return
	}
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return
	}

	_, _ = a.auditLogs.Record(auditlog.RecordInput{
		ActorType:  auditlog.ActorTypeUser,
		ActorID:    identity.UserID,
		ActorRole:  identity.Role.String(),
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Before:     before,
		After:      after,
		Metadata:   metadata,
	})
}
