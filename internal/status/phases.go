package status

import (
	"fmt"

	"github.com/jbweber/virtinst/api/v1alpha1"
)

// TransitionToValidated moves a pending installation to Validated once its
// location has been accepted. mediaType is recorded for display.
func TransitionToValidated(inst *v1alpha1.Installation, mediaType string) error {
	if inst.GetPhase() != v1alpha1.InstallPhasePending {
		return fmt.Errorf("cannot transition to Validated from phase %s", inst.GetPhase())
	}

	inst.SetPhase(v1alpha1.InstallPhaseValidated)
	inst.Status.MediaType = mediaType
	MarkLocationValid(inst, mediaType)
	return nil
}

// TransitionToPrepared moves a validated installation to Prepared once its
// boot media is ready.
func TransitionToPrepared(inst *v1alpha1.Installation) error {
	if inst.GetPhase() != v1alpha1.InstallPhaseValidated {
		return fmt.Errorf("cannot transition to Prepared from phase %s", inst.GetPhase())
	}

	inst.SetPhase(v1alpha1.InstallPhasePrepared)
	MarkMediaPrepared(inst)
	inst.UpdateObservedGeneration()
	return nil
}

// TransitionToFailed fails the installation from any phase.
func TransitionToFailed(inst *v1alpha1.Installation, condType, reason, message string) {
	inst.SetPhase(v1alpha1.InstallPhaseFailed)
	SetCondition(inst, condType, v1alpha1.ConditionFalse, reason, message)
}

// IsTerminal returns true for phases no further step moves out of.
func IsTerminal(phase v1alpha1.InstallPhase) bool {
	return phase == v1alpha1.InstallPhasePrepared || phase == v1alpha1.InstallPhaseFailed
}
