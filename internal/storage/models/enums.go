package models

// Category is the kind of directory entry.
type Category string

const (
	CategoryMedico         Category = "MEDICO"
	CategoryAdministrativo Category = "ADMINISTRATIVO"
	CategoryHospital       Category = "HOSPITAL"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryMedico, CategoryAdministrativo, CategoryHospital:
		return true
	}
	return false
}

// IDPrefix is the short prefix used when minting contact IDs for this category.
func (c Category) IDPrefix() string {
	switch c {
	case CategoryMedico:
		return "med"
	case CategoryAdministrativo:
		return "adm"
	case CategoryHospital:
		return "hos"
	}
	return "doc"
}

// Classification is the sales tier of a contact.
type Classification string

const (
	ClassificationA Classification = "A"
	ClassificationB Classification = "B"
	ClassificationC Classification = "C"
	ClassificationD Classification = "D"
)

// Valid reports whether c is a known tier. The empty value is allowed on the wire
// and means "unclassified".
func (c Classification) Valid() bool {
	switch c {
	case ClassificationA, ClassificationB, ClassificationC, ClassificationD, "":
		return true
	}
	return false
}

// Outcome tags what happened (or is planned to happen) at a visit.
type Outcome string

const (
	OutcomeSeguimiento            Outcome = "SEGUIMIENTO"
	OutcomeCotizacion             Outcome = "COTIZACIÓN"
	OutcomeInteresado             Outcome = "INTERESADO"
	OutcomeProgramarProcedimiento Outcome = "PROGRAMAR PROCEDIMIENTO"
	OutcomePlaneada               Outcome = "PLANEADA"
	OutcomeCita                   Outcome = "CITA"
	OutcomeAusente                Outcome = "AUSENTE"
	OutcomeCompromiso             Outcome = "COMPROMISO"
)

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeSeguimiento, OutcomeCotizacion, OutcomeInteresado, OutcomeProgramarProcedimiento,
		OutcomePlaneada, OutcomeCita, OutcomeAusente, OutcomeCompromiso:
		return true
	}
	return false
}

// Reportable reports whether o may be assigned by the reporting flow.
func (o Outcome) Reportable() bool {
	switch o {
	case OutcomeSeguimiento, OutcomeCotizacion, OutcomeInteresado, OutcomeProgramarProcedimiento, OutcomeAusente:
		return true
	case OutcomePlaneada, OutcomeCita, OutcomeCompromiso:
		return false
	}
	return false
}

// VisitStatus is the lifecycle state of a visit.
type VisitStatus string

const (
	VisitPlanned   VisitStatus = "planned"
	VisitCompleted VisitStatus = "completed"
)

// Valid reports whether s is a known status.
func (s VisitStatus) Valid() bool {
	switch s {
	case VisitPlanned, VisitCompleted:
		return true
	}
	return false
}

// Priority is the commercial relevance of a visit.
type Priority string

const (
	PriorityAlta  Priority = "ALTA"
	PriorityMedia Priority = "MEDIA"
	PriorityBaja  Priority = "BAJA"
)

// Valid reports whether p is a known priority or unset.
func (p Priority) Valid() bool {
	switch p {
	case PriorityAlta, PriorityMedia, PriorityBaja, "":
		return true
	}
	return false
}

// NextStepType is the channel agreed for the next contact after a visit.
type NextStepType string

const (
	NextStepLlamada  NextStepType = "LLAMADA"
	NextStepWhatsapp NextStepType = "WHATSAPP"
	NextStepVisita   NextStepType = "VISITA"
	NextStepEmail    NextStepType = "EMAIL"
)

// Valid reports whether n is a known channel or unset.
func (n NextStepType) Valid() bool {
	switch n {
	case NextStepLlamada, NextStepWhatsapp, NextStepVisita, NextStepEmail, "":
		return true
	}
	return false
}

// SocialStyle is the contact's communication profile.
type SocialStyle string

const (
	SocialAnalitico   SocialStyle = "ANALÍTICO"
	SocialEmprendedor SocialStyle = "EMPRENDEDOR"
	SocialAfable      SocialStyle = "AFABLE"
	SocialExpresivo   SocialStyle = "EXPRESIVO"
)

// AttitudinalSegment groups contacts by what drives their decisions.
type AttitudinalSegment string

const (
	SegmentRelacion    AttitudinalSegment = "RELACIÓN"
	SegmentPaciente    AttitudinalSegment = "PACIENTE"
	SegmentInnovacion  AttitudinalSegment = "INNOVACIÓN"
	SegmentExperiencia AttitudinalSegment = "EXPERIENCIA"
)

// TimeOffReason is why an executive is unavailable.
type TimeOffReason string

const (
	ReasonVacaciones     TimeOffReason = "VACACIONES"
	ReasonIncapacidad    TimeOffReason = "INCAPACIDAD"
	ReasonJunta          TimeOffReason = "JUNTA"
	ReasonPermiso        TimeOffReason = "PERMISO"
	ReasonAdministrativo TimeOffReason = "ADMINISTRATIVO"
)

// Valid reports whether r is a known reason.
func (r TimeOffReason) Valid() bool {
	switch r {
	case ReasonVacaciones, ReasonIncapacidad, ReasonJunta, ReasonPermiso, ReasonAdministrativo:
		return true
	}
	return false
}

// TimeOffDuration describes how much of each day an absence takes.
type TimeOffDuration string

const (
	DurationShort   TimeOffDuration = "2 A 4 HRS"
	DurationLong    TimeOffDuration = "6 A 8 HRS"
	DurationFullDay TimeOffDuration = "TODO EL DÍA"
)

// Valid reports whether d is a known duration.
func (d TimeOffDuration) Valid() bool {
	switch d {
	case DurationShort, DurationLong, DurationFullDay:
		return true
	}
	return false
}

// ProcedureStatus is the lifecycle state of a billable procedure.
type ProcedureStatus string

const (
	ProcedureScheduled ProcedureStatus = "scheduled"
	ProcedurePerformed ProcedureStatus = "performed"
)

// Valid reports whether s is a known status.
func (s ProcedureStatus) Valid() bool {
	switch s {
	case ProcedureScheduled, ProcedurePerformed:
		return true
	}
	return false
}

// PaymentType is who pays for a procedure.
type PaymentType string

const (
	PaymentDirecto     PaymentType = "DIRECTO"
	PaymentAseguradora PaymentType = "ASEGURADORA"
)

// Valid reports whether p is a known payment type or unset.
func (p PaymentType) Valid() bool {
	switch p {
	case PaymentDirecto, PaymentAseguradora, "":
		return true
	}
	return false
}

// Role distinguishes administrators from sales executives.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleExecutive Role = "executive"
)
