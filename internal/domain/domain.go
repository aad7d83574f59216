package domain

import (
	"github.com/steelbound/forgetrace-backend/internal/domain/catalog"
	"github.com/steelbound/forgetrace-backend/internal/domain/material"
	"github.com/steelbound/forgetrace-backend/internal/domain/production"
	"github.com/steelbound/forgetrace-backend/internal/domain/tenant"
	"github.com/steelbound/forgetrace-backend/internal/domain/workflow"
)

type Tenant = tenant.Tenant

type Item = catalog.Item
type Buyer = catalog.Buyer
type Transporter = catalog.Transporter

type RawMaterial = material.RawMaterial
type RawMaterialHeat = material.RawMaterialHeat

type WorkflowTemplate = workflow.WorkflowTemplate
type WorkflowTemplateStep = workflow.WorkflowTemplateStep
type ItemWorkflow = workflow.ItemWorkflow
type ItemWorkflowStep = workflow.ItemWorkflowStep
type OperationType = workflow.OperationType
type WorkflowStatus = workflow.Status
type StepOutcome = workflow.StepOutcome
type WorkflowScope = workflow.Scope

type Forge = production.Forge
type ProcessedItem = production.ProcessedItem
type PieceClaim = production.PieceClaim
type SourceRef = production.SourceRef
type SourceKind = production.SourceKind
type HeatTreatmentBatch = production.HeatTreatmentBatch
type MachiningBatch = production.MachiningBatch
type InspectionBatch = production.InspectionBatch
type DispatchBatch = production.DispatchBatch

const (
	OpForging       = workflow.OpForging
	OpHeatTreatment = workflow.OpHeatTreatment
	OpMachining     = workflow.OpMachining
	OpInspection    = workflow.OpInspection
	OpDispatch      = workflow.OpDispatch

	StatusNotStarted = workflow.StatusNotStarted
	StatusInProgress = workflow.StatusInProgress
	StatusCompleted  = workflow.StatusCompleted
	StatusCancelled  = workflow.StatusCancelled

	OutcomePass = workflow.OutcomePass
	OutcomeFail = workflow.OutcomeFail

	SourceProcessedItem      = production.SourceProcessedItem
	SourceHeatTreatmentBatch = production.SourceHeatTreatmentBatch
	SourceMachiningBatch     = production.SourceMachiningBatch
	SourceInspectionBatch    = production.SourceInspectionBatch
)
