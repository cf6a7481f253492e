package validate

import "github.com/boltoncivic/crawlctl/internal/model"

// SpendingRecord checks a single extracted payment row. Supplier is the
// record's identity and is required; department, description, and invoice
// number are optional and only tracked for completeness.
func SpendingRecord(r model.SpendingRecord) Outcome[model.SpendingRecord] {
	var errs []FieldError
	var missing []string

	anomaly, amtErrs := checkAmount("amount", r.Amount)
	errs = append(errs, amtErrs...)
	errs = append(errs, checkYear("transaction_date", r.TransactionDate)...)

	r.Supplier = trimRequired("supplier", r.Supplier, &errs)
	r.Department = trimOptional("department", r.Department, &missing)
	r.Description = trimOptional("description", r.Description, &missing)
	r.InvoiceNumber = trimOptional("invoice_number", r.InvoiceNumber, &missing)

	return Outcome[model.SpendingRecord]{
		Record:        r,
		Valid:         len(errs) == 0,
		Anomaly:       anomaly,
		MissingFields: missing,
		Errors:        errs,
	}
}

// BudgetItem checks a single budget line. Department and category are
// required; subcategory and description are optional.
func BudgetItem(b model.BudgetItem) Outcome[model.BudgetItem] {
	var errs []FieldError
	var missing []string

	anomaly, amtErrs := checkAmount("budgeted_amount", b.BudgetedAmount)
	errs = append(errs, amtErrs...)
	if b.ActualAmount != nil {
		actualAnomaly, actualErrs := checkAmount("actual_amount", *b.ActualAmount)
		errs = append(errs, actualErrs...)
		anomaly = anomaly || actualAnomaly
	}
	errs = append(errs, checkYearInt("year", b.Year)...)

	b.Department = trimRequired("department", b.Department, &errs)
	b.Category = trimRequired("category", b.Category, &errs)
	b.Subcategory = trimOptional("subcategory", b.Subcategory, &missing)
	b.Description = trimOptional("description", b.Description, &missing)

	return Outcome[model.BudgetItem]{
		Record:        b,
		Valid:         len(errs) == 0,
		Anomaly:       anomaly,
		MissingFields: missing,
		Errors:        errs,
	}
}

// StatisticalDatum checks a single extracted quantitative fact. Metric is
// required; subcategory and methodology are optional.
func StatisticalDatum(d model.StatisticalDatum) Outcome[model.StatisticalDatum] {
	var errs []FieldError
	var missing []string

	anomaly, amtErrs := checkAmount("value", d.Value)
	errs = append(errs, amtErrs...)
	errs = append(errs, checkYear("date", d.Date)...)
	errs = append(errs, checkConfidence("confidence", d.Confidence)...)

	d.Metric = trimRequired("metric", d.Metric, &errs)
	d.Subcategory = trimOptional("subcategory", d.Subcategory, &missing)
	d.Methodology = trimOptional("methodology", d.Methodology, &missing)

	return Outcome[model.StatisticalDatum]{
		Record:        d,
		Valid:         len(errs) == 0,
		Anomaly:       anomaly,
		MissingFields: missing,
		Errors:        errs,
	}
}

// PlanningApplication checks a single planning case. Reference and address
// are required; applicant name, case officer, development type, and
// parish are optional. Status is expected to already be normalized by
// classify.NormalizePlanningStatus; this is a defensive membership check
// against the closed enumeration, not the normalization step itself.
func PlanningApplication(p model.PlanningApplication) Outcome[model.PlanningApplication] {
	var errs []FieldError
	var missing []string

	errs = append(errs, checkPlanningStatus("status", p.Status)...)
	errs = append(errs, checkYear("received_date", p.ReceivedDate)...)
	if p.DecisionDate != nil {
		errs = append(errs, checkYear("decision_date", *p.DecisionDate)...)
	}
	if p.ConsultationEndDate != nil {
		errs = append(errs, checkYear("consultation_end_date", *p.ConsultationEndDate)...)
	}

	p.Reference = trimRequired("reference", p.Reference, &errs)
	p.Address = trimRequired("address", p.Address, &errs)
	p.ApplicantName = trimOptional("applicant_name", p.ApplicantName, &missing)
	p.CaseOfficer = trimOptional("case_officer", p.CaseOfficer, &missing)
	p.DevelopmentType = trimOptional("development_type", p.DevelopmentType, &missing)
	p.Parish = trimOptional("parish", p.Parish, &missing)

	return Outcome[model.PlanningApplication]{
		Record:        p,
		Valid:         len(errs) == 0,
		MissingFields: missing,
		Errors:        errs,
	}
}
