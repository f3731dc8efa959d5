package pgjwt

import (
	"context"
	"time"
)

const (
	auditEventModuleStartup      = "module_startup"
	auditEventModuleShutdown     = "module_shutdown"
	auditEventValidateAuthorized = "validate_authorized"
	auditEventValidateDenied     = "validate_denied"
)

func (v *Validator) emitAudit(eventType string, st *moduleState, role string, success bool, reason string) {
	if v.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp: v.now().UTC().Truncate(time.Millisecond),
		EventType: eventType,
		Role:      role,
		Success:   success,
		Reason:    reason,
	}
	if st != nil {
		event.StateID = st.id.String()
	}
	v.audit.Emit(context.Background(), event)
}
