package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Stage is the pipeline stage a step executes in.
type Stage int

const (
	StagePreValidation Stage = 10
	StagePreOperation  Stage = 20
	StagePostOperation Stage = 40
)

var stageNames = map[Stage]string{
	StagePreValidation: "PreValidation",
	StagePreOperation:  "PreOperation",
	StagePostOperation: "PostOperation",
}

// IsPreExecution reports whether the stage runs before the core operation.
func (s Stage) IsPreExecution() bool {
	return s == StagePreValidation || s == StagePreOperation
}

func (s Stage) String() string               { return enumString(stageNames, s) }
func (s Stage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (s *Stage) UnmarshalText(b []byte) error {
	return unmarshalEnum("stage", stageNames, b, s)
}

// ParseStage parses a stage name or its numeric value.
func ParseStage(v string) (Stage, error) { return parseEnum("stage", stageNames, v) }

// Mode is the execution mode of a step.
type Mode int

const (
	ModeSynchronous  Mode = 0
	ModeAsynchronous Mode = 1
)

var modeNames = map[Mode]string{
	ModeSynchronous:  "Synchronous",
	ModeAsynchronous: "Asynchronous",
}

func (m Mode) String() string               { return enumString(modeNames, m) }
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }
func (m *Mode) UnmarshalText(b []byte) error {
	return unmarshalEnum("mode", modeNames, b, m)
}

// ParseMode parses a mode name or its numeric value.
func ParseMode(v string) (Mode, error) { return parseEnum("mode", modeNames, v) }

// Deployment says where a step runs.
type Deployment int

const (
	DeploymentServerOnly Deployment = 0
	DeploymentOffline    Deployment = 1
	DeploymentBoth       Deployment = 2
)

var deploymentNames = map[Deployment]string{
	DeploymentServerOnly: "ServerOnly",
	DeploymentOffline:    "Offline",
	DeploymentBoth:       "Both",
}

func (d Deployment) String() string               { return enumString(deploymentNames, d) }
func (d Deployment) MarshalText() ([]byte, error) { return []byte(d.String()), nil }
func (d *Deployment) UnmarshalText(b []byte) error {
	return unmarshalEnum("deployment", deploymentNames, b, d)
}

// ParseDeployment parses a deployment name or its numeric value.
func ParseDeployment(v string) (Deployment, error) {
	return parseEnum("deployment", deploymentNames, v)
}

// ImageType selects which snapshots an image captures.
type ImageType int

const (
	ImageTypePre  ImageType = 0
	ImageTypePost ImageType = 1
	ImageTypeBoth ImageType = 2
)

var imageTypeNames = map[ImageType]string{
	ImageTypePre:  "PreImage",
	ImageTypePost: "PostImage",
	ImageTypeBoth: "Both",
}

// HasPre reports whether the image captures the pre-operation state.
func (t ImageType) HasPre() bool { return t == ImageTypePre || t == ImageTypeBoth }

// HasPost reports whether the image captures the post-operation state.
func (t ImageType) HasPost() bool { return t == ImageTypePost || t == ImageTypeBoth }

func (t ImageType) String() string               { return enumString(imageTypeNames, t) }
func (t ImageType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }
func (t *ImageType) UnmarshalText(b []byte) error {
	return unmarshalEnum("image type", imageTypeNames, b, t)
}

// ParseImageType parses an image type name or its numeric value.
func ParseImageType(v string) (ImageType, error) {
	return parseEnum("image type", imageTypeNames, v)
}

// BindingType says what a custom API is bound to.
type BindingType int

const (
	BindingTypeGlobal           BindingType = 0
	BindingTypeEntity           BindingType = 1
	BindingTypeEntityCollection BindingType = 2
)

var bindingTypeNames = map[BindingType]string{
	BindingTypeGlobal:           "Global",
	BindingTypeEntity:           "Entity",
	BindingTypeEntityCollection: "EntityCollection",
}

// IsBound reports whether the binding requires a bound entity.
func (b BindingType) IsBound() bool { return b != BindingTypeGlobal }

func (b BindingType) String() string               { return enumString(bindingTypeNames, b) }
func (b BindingType) MarshalText() ([]byte, error) { return []byte(b.String()), nil }
func (b *BindingType) UnmarshalText(v []byte) error {
	return unmarshalEnum("binding type", bindingTypeNames, v, b)
}

// ParseBindingType parses a binding type name or its numeric value.
func ParseBindingType(v string) (BindingType, error) {
	return parseEnum("binding type", bindingTypeNames, v)
}

// ProcessingStepType limits which custom steps may be registered on a custom API.
type ProcessingStepType int

const (
	ProcessingStepNone         ProcessingStepType = 0
	ProcessingStepAsyncOnly    ProcessingStepType = 1
	ProcessingStepSyncAndAsync ProcessingStepType = 2
)

var processingStepTypeNames = map[ProcessingStepType]string{
	ProcessingStepNone:         "None",
	ProcessingStepAsyncOnly:    "AsyncOnly",
	ProcessingStepSyncAndAsync: "SyncAndAsync",
}

func (p ProcessingStepType) String() string               { return enumString(processingStepTypeNames, p) }
func (p ProcessingStepType) MarshalText() ([]byte, error) { return []byte(p.String()), nil }
func (p *ProcessingStepType) UnmarshalText(b []byte) error {
	return unmarshalEnum("processing step type", processingStepTypeNames, b, p)
}

// ParseProcessingStepType parses a processing step type name or its numeric value.
func ParseProcessingStepType(v string) (ProcessingStepType, error) {
	return parseEnum("processing step type", processingStepTypeNames, v)
}

// ParameterType is the data type of a request parameter or response property.
type ParameterType int

const (
	ParameterBoolean          ParameterType = 0
	ParameterDateTime         ParameterType = 1
	ParameterDecimal          ParameterType = 2
	ParameterEntity           ParameterType = 3
	ParameterEntityCollection ParameterType = 4
	ParameterEntityReference  ParameterType = 5
	ParameterFloat            ParameterType = 6
	ParameterInteger          ParameterType = 7
	ParameterMoney            ParameterType = 8
	ParameterPicklist         ParameterType = 9
	ParameterString           ParameterType = 10
	ParameterStringArray      ParameterType = 11
	ParameterGuid             ParameterType = 12
)

var parameterTypeNames = map[ParameterType]string{
	ParameterBoolean:          "Boolean",
	ParameterDateTime:         "DateTime",
	ParameterDecimal:          "Decimal",
	ParameterEntity:           "Entity",
	ParameterEntityCollection: "EntityCollection",
	ParameterEntityReference:  "EntityReference",
	ParameterFloat:            "Float",
	ParameterInteger:          "Integer",
	ParameterMoney:            "Money",
	ParameterPicklist:         "Picklist",
	ParameterString:           "String",
	ParameterStringArray:      "StringArray",
	ParameterGuid:             "Guid",
}

// IsEntityType reports whether values of this type refer to a table.
func (p ParameterType) IsEntityType() bool {
	return p == ParameterEntity || p == ParameterEntityCollection || p == ParameterEntityReference
}

func (p ParameterType) String() string               { return enumString(parameterTypeNames, p) }
func (p ParameterType) MarshalText() ([]byte, error) { return []byte(p.String()), nil }
func (p *ParameterType) UnmarshalText(b []byte) error {
	return unmarshalEnum("parameter type", parameterTypeNames, b, p)
}

// ParseParameterType parses a parameter type name or its numeric value.
func ParseParameterType(v string) (ParameterType, error) {
	return parseEnum("parameter type", parameterTypeNames, v)
}

func enumString[E ~int](names map[E]string, v E) string {
	if name, ok := names[v]; ok {
		return name
	}
	return strconv.Itoa(int(v))
}

// parseEnum accepts a case-insensitive name or the numeric value.
func parseEnum[E ~int](kind string, names map[E]string, v string) (E, error) {
	v = strings.TrimSpace(v)
	for e, name := range names {
		if strings.EqualFold(name, v) {
			return e, nil
		}
	}
	if n, err := strconv.Atoi(v); err == nil {
		if _, ok := names[E(n)]; ok {
			return E(n), nil
		}
	}
	return 0, fmt.Errorf("invalid %s %q", kind, v)
}

func unmarshalEnum[E ~int](kind string, names map[E]string, b []byte, out *E) error {
	v, err := parseEnum(kind, names, string(b))
	if err != nil {
		return err
	}
	*out = v
	return nil
}
