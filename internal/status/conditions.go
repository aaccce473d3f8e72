// Package status manages Installation status: conditions and phase
// transitions.
package status

import (
	"time"

	"github.com/jbweber/virtinst/api/v1alpha1"
)

// SetCondition adds or updates a condition in the installation status.
// LastTransitionTime only moves when the status changes.
func SetCondition(inst *v1alpha1.Installation, condType string, status v1alpha1.ConditionStatus, reason, message string) {
	now := v1alpha1.Time{Time: time.Now()}

	for i := range inst.Status.Conditions {
		if inst.Status.Conditions[i].Type != condType {
			continue
		}
		existing := &inst.Status.Conditions[i]
		if existing.Status != status {
			existing.LastTransitionTime = now
		}
		existing.Status = status
		existing.Reason = reason
		existing.Message = message
		existing.ObservedGeneration = inst.Generation
		return
	}

	inst.Status.Conditions = append(inst.Status.Conditions, v1alpha1.Condition{
		Type:               condType,
		Status:             status,
		ObservedGeneration: inst.Generation,
		LastTransitionTime: now,
		Reason:             reason,
		Message:            message,
	})
}

// GetCondition returns a condition by type, or nil if not found.
func GetCondition(inst *v1alpha1.Installation, condType string) *v1alpha1.Condition {
	for i := range inst.Status.Conditions {
		if inst.Status.Conditions[i].Type == condType {
			return &inst.Status.Conditions[i]
		}
	}
	return nil
}

// IsConditionTrue returns true if the condition exists and has status True.
func IsConditionTrue(inst *v1alpha1.Installation, condType string) bool {
	cond := GetCondition(inst, condType)
	return cond != nil && cond.Status == v1alpha1.ConditionTrue
}

// IsConditionFalse returns true if the condition exists and has status False.
func IsConditionFalse(inst *v1alpha1.Installation, condType string) bool {
	cond := GetCondition(inst, condType)
	return cond != nil && cond.Status == v1alpha1.ConditionFalse
}

// RemoveCondition removes a condition by type.
func RemoveCondition(inst *v1alpha1.Installation, condType string) {
	filtered := inst.Status.Conditions[:0]
	for _, c := range inst.Status.Conditions {
		if c.Type != condType {
			filtered = append(filtered, c)
		}
	}
	inst.Status.Conditions = filtered
}

// MarkLocationValid records an accepted location.
func MarkLocationValid(inst *v1alpha1.Installation, mediaType string) {
	SetCondition(inst, v1alpha1.ConditionLocationValid, v1alpha1.ConditionTrue, "LocationAccepted", "Install media is "+mediaType)
}

// MarkLocationInvalid records a rejected location and fails the installation.
func MarkLocationInvalid(inst *v1alpha1.Installation, err error) {
	SetCondition(inst, v1alpha1.ConditionLocationValid, v1alpha1.ConditionFalse, "LocationRejected", err.Error())
	inst.SetPhase(v1alpha1.InstallPhaseFailed)
}

// MarkDistroDetected records the detected OS.
func MarkDistroDetected(inst *v1alpha1.Installation, distro string) {
	SetCondition(inst, v1alpha1.ConditionDistroDetected, v1alpha1.ConditionTrue, "DistroFound", "Media is "+distro)
}

// MarkDistroUnknown records that detection found nothing. Detection is
// best effort, so the phase is left alone.
func MarkDistroUnknown(inst *v1alpha1.Installation) {
	SetCondition(inst, v1alpha1.ConditionDistroDetected, v1alpha1.ConditionUnknown, "DistroNotFound", "Could not detect the media OS")
}

// MarkMediaPrepared records fetched boot media.
func MarkMediaPrepared(inst *v1alpha1.Installation) {
	SetCondition(inst, v1alpha1.ConditionMediaPrepared, v1alpha1.ConditionTrue, "MediaReady", "Boot media is ready for the guest")
}

// MarkMediaFailed records a preparation failure and fails the installation.
func MarkMediaFailed(inst *v1alpha1.Installation, err error) {
	SetCondition(inst, v1alpha1.ConditionMediaPrepared, v1alpha1.ConditionFalse, "PrepareFailed", err.Error())
	inst.SetPhase(v1alpha1.InstallPhaseFailed)
}
