package toolkit

import (
	"github.com/JonMunkholm/fdakit/internal/core"
	"github.com/JonMunkholm/fdakit/internal/features"
	"github.com/JonMunkholm/fdakit/internal/finance"
	"github.com/JonMunkholm/fdakit/internal/pipeline"
	"github.com/JonMunkholm/fdakit/internal/registry"
	"github.com/JonMunkholm/fdakit/internal/reporting"
	"github.com/JonMunkholm/fdakit/internal/security"
	"github.com/JonMunkholm/fdakit/internal/validation"
)

// Categories in display order.
const (
	CategoryColumns    = "Column Management"
	CategoryMissing    = "Missing Values"
	CategoryDuplicates = "Duplicates"
	CategoryText       = "Text Standardisation"
	CategoryTypes      = "Data Types"
	CategoryOutliers   = "Outlier Detection"
	CategoryFinance    = "Finance"
	CategoryValidation = "Validation"
	CategoryFeatures   = "Feature Engineering"
	CategoryReporting  = "Reporting"
	CategoryUtilities  = "Utilities"
	CategoryPipelines  = "Pipelines"
)

var builtins = []registry.Entry{
	// Column management
	{Name: "clean_column_headers", Category: CategoryColumns, Module: "core.columns", Fn: core.CleanColumnHeaders,
		Description: "Standardise header names to lower_snake_case"},
	{Name: "make_unique_columns", Category: CategoryColumns, Module: "core.columns", Fn: core.MakeUniqueColumns,
		Description: "Suffix repeated header names with _1, _2, ..."},

	// Missing values
	{Name: "coerce_empty_to_null", Category: CategoryMissing, Module: "core.missing", Fn: core.CoerceEmptyToNull,
		Description: "Turn placeholders like NA or null into missing cells"},
	{Name: "fill_missing", Category: CategoryMissing, Module: "core.missing", Fn: core.FillMissing,
		Description: "Fill missing cells by constant, ffill, bfill, mode, mean or median"},

	// Duplicates
	{Name: "find_duplicates", Category: CategoryDuplicates, Module: "core.duplicates", Fn: core.FindDuplicates,
		Description: "Mark duplicate rows over a column subset"},
	{Name: "remove_duplicates", Category: CategoryDuplicates, Module: "core.duplicates", Fn: core.RemoveDuplicates,
		Description: "Drop duplicate rows, keeping first or last"},
	{Name: "deduplicate_by_priority", Category: CategoryDuplicates, Module: "core.duplicates", Fn: core.DeduplicateByPriority,
		Description: "Sort by priority columns, then keep one row per key"},

	// Text
	{Name: "clean_text_column", Category: CategoryText, Module: "core.text", Fn: core.CleanTextColumn,
		Description: "Trim, collapse whitespace and optionally lowercase text"},
	{Name: "standardize_text_values", Category: CategoryText, Module: "core.text", Fn: core.StandardizeTextValues,
		Description: "Map text variants to canonical values"},
	{Name: "standardize_us_states", Category: CategoryText, Module: "core.text", Fn: core.StandardizeUSStates,
		Description: "Normalise US state names to two-letter codes"},
	{Name: "clean_categorical_column", Category: CategoryText, Module: "core.text", Fn: core.CleanCategoricalColumn,
		Description: "Strip and case-fold category labels"},

	// Types
	{Name: "clean_numeric_column", Category: CategoryTypes, Module: "core.types", Fn: core.CleanNumericColumn,
		Description: "Parse numbers with currency symbols and separators"},
	{Name: "clean_boolean_column", Category: CategoryTypes, Module: "core.types", Fn: core.CleanBooleanColumn,
		Description: "Parse yes/no, true/false and 1/0 values"},
	{Name: "clean_date_column", Category: CategoryTypes, Module: "core.types", Fn: core.CleanDateColumn,
		Description: "Parse dates in ISO, month-first or day-first layouts"},
	{Name: "convert_data_types", Category: CategoryTypes, Module: "core.types", Fn: core.ConvertDataTypes,
		Description: "Rewrite columns as canonical numbers, booleans, dates or text"},

	// Outliers
	{Name: "detect_outliers_iqr", Category: CategoryOutliers, Module: "core.outliers", Fn: core.DetectOutliersIQR,
		Description: "Flag values outside Q1-k*IQR and Q3+k*IQR"},
	{Name: "remove_outliers_iqr", Category: CategoryOutliers, Module: "core.outliers", Fn: core.RemoveOutliersIQR,
		Description: "Drop rows whose column value is an IQR outlier"},
	{Name: "remove_outliers_zscore", Category: CategoryOutliers, Module: "core.outliers", Fn: core.RemoveOutliersZScore,
		Description: "Drop rows whose |z-score| exceeds a threshold"},
	{Name: "flag_outliers", Category: CategoryOutliers, Module: "core.outliers", Fn: core.FlagOutliers,
		Description: "Add an is_outlier flag column by IQR or z-score"},
	{Name: "cap_outliers", Category: CategoryOutliers, Module: "core.outliers", Fn: core.CapOutliers,
		Description: "Clip values to their lower and upper quantiles"},
	{Name: "winsorize_outliers", Category: CategoryOutliers, Module: "core.outliers", Fn: core.WinsorizeOutliers,
		Description: "Clip the bottom and top tail fractions to the quantile values"},

	// Finance
	{Name: "parse_currency", Category: CategoryFinance, Module: "finance.parsing", Fn: finance.ParseCurrency,
		Description: "Parse currency strings into numbers"},
	{Name: "parse_percentage", Category: CategoryFinance, Module: "finance.parsing", Fn: finance.ParsePercentage,
		Description: "Parse percentages into fractions"},
	{Name: "clean_accounting_negative", Category: CategoryFinance, Module: "finance.parsing", Fn: finance.CleanAccountingNegative,
		Description: "Read (123.45) as -123.45"},
	{Name: "strip_legal_suffixes", Category: CategoryFinance, Module: "finance.entities", Fn: finance.StripLegalSuffixes,
		Description: "Remove Inc, Ltd, LLC and similar from entity names"},
	{Name: "standardize_entity_names", Category: CategoryFinance, Module: "finance.entities", Fn: finance.StandardizeEntityNames,
		Description: "Map entity name variants to canonical names"},
	{Name: "normalize_reference_codes", Category: CategoryFinance, Module: "finance.entities", Fn: finance.NormalizeReferenceCodes,
		Description: "Uppercase and strip punctuation from reference codes"},
	{Name: "validate_sign_conventions", Category: CategoryFinance, Module: "finance.rules", Fn: finance.ValidateSignConventions,
		Description: "Flag values with the wrong sign for their column"},
	{Name: "check_balanced_entries", Category: CategoryFinance, Module: "finance.rules", Fn: finance.CheckBalancedEntries,
		Description: "Flag rows or groups where debits and credits differ"},
	{Name: "impute_by_rule", Category: CategoryFinance, Module: "finance.rules", Fn: finance.ImputeByRule,
		Description: "Fill missing cells with a fixed value per column"},
	{Name: "detect_outliers_groupwise", Category: CategoryFinance, Module: "finance.rules", Fn: finance.DetectOutliersGroupwise,
		Description: "Flag outliers within each group instead of the whole column"},
	{Name: "seasonality_aware_outliers", Category: CategoryFinance, Module: "finance.rules", Fn: finance.SeasonalityAwareOutliers,
		Description: "Flag outliers within each month, quarter or year"},

	// Validation
	{Name: "validate_required_fields", Category: CategoryValidation, Module: "validation.schema", Fn: validation.ValidateRequiredFields,
		Description: "Require columns to exist and hold data"},
	{Name: "validate_category_set", Category: CategoryValidation, Module: "validation.schema", Fn: validation.ValidateCategorySet,
		Description: "Flag values outside an allowed set"},
	{Name: "assert_primary_key", Category: CategoryValidation, Module: "validation.integrity", Fn: validation.AssertPrimaryKey,
		Description: "Require key columns to be present and unique"},
	{Name: "check_referential_integrity", Category: CategoryValidation, Module: "validation.integrity", Fn: validation.CheckReferentialIntegrity,
		Description: "Find fact rows whose key is missing from a dimension"},
	{Name: "validate_data_ranges", Category: CategoryValidation, Module: "validation.ranges", Fn: validation.ValidateDataRanges,
		Description: "Flag numeric or date values outside bounds"},
	{Name: "standardize_schema", Category: CategoryValidation, Module: "validation.schema", Fn: validation.StandardizeSchema,
		Description: "Require columns, then rename by a mapping"},
	{Name: "check_time_continuity", Category: CategoryValidation, Module: "validation.integrity", Fn: validation.CheckTimeContinuity,
		Description: "List missing days, weeks or months in a date column"},
	{Name: "check_data_consistency", Category: CategoryValidation, Module: "validation.integrity", Fn: validation.CheckDataConsistency,
		Description: "Find mostly-empty, constant and mostly-zero columns"},
	{Name: "reconciliation_check", Category: CategoryValidation, Module: "validation.integrity", Fn: validation.ReconciliationCheck,
		Description: "Compare column totals before and after, optionally by group"},

	// Feature engineering
	{Name: "extract_date_features", Category: CategoryFeatures, Module: "features.datetime", Fn: features.ExtractDateFeatures,
		Description: "Add year, quarter, month, day, weekday, day of year and ISO week"},
	{Name: "create_period_keys", Category: CategoryFeatures, Module: "features.datetime", Fn: features.CreatePeriodKeys,
		Description: "Add a YYYYMM, YYYYQn or YYYY period key"},
	{Name: "create_fiscal_calendar_features", Category: CategoryFeatures, Module: "features.datetime", Fn: features.CreateFiscalCalendarFeatures,
		Description: "Add fiscal_year and fiscal_period for a fiscal start month"},
	{Name: "lag_features", Category: CategoryFeatures, Module: "features.datetime", Fn: features.LagFeatures,
		Description: "Add lagged values within each group"},
	{Name: "limit_cardinality", Category: CategoryFeatures, Module: "features.categorical", Fn: features.LimitCardinality,
		Description: "Keep the N most frequent values, fold the rest into Other"},
	{Name: "rare_category_handler", Category: CategoryFeatures, Module: "features.categorical", Fn: features.RareCategoryHandler,
		Description: "Fold values seen fewer than N times into Other"},
	{Name: "encode_categorical_variables", Category: CategoryFeatures, Module: "features.categorical", Fn: features.EncodeCategoricalVariables,
		Description: "One-hot encode categorical columns"},

	// Reporting
	{Name: "quick_check", Category: CategoryReporting, Module: "reporting.profiling", Fn: reporting.QuickCheck,
		Description: "Print a short data quality report"},
	{Name: "get_data_summary", Category: CategoryReporting, Module: "reporting.profiling", Fn: reporting.GetDataSummary,
		Description: "Shape, missing cells and duplicate rows"},
	{Name: "missingness_profile", Category: CategoryReporting, Module: "reporting.profiling", Fn: reporting.MissingnessProfile,
		Description: "Missing cells per column, worst first"},
	{Name: "infer_and_report_types", Category: CategoryReporting, Module: "reporting.profiling", Fn: reporting.InferAndReportTypes,
		Description: "Infer numeric, boolean, date or text per column"},
	{Name: "memory_profile", Category: CategoryReporting, Module: "reporting.profiling", Fn: reporting.MemoryProfile,
		Description: "Approximate bytes per column, largest first"},
	{Name: "profile_report", Category: CategoryReporting, Module: "reporting.profiling", Fn: reporting.ProfileReport,
		Description: "Summary, types, missingness, memory and IQR outliers in one report"},
	{Name: "info", Category: CategoryReporting, Module: "reporting.profiling", Fn: reporting.Info,
		Description: "List registered functions"},
	{Name: "snapshot_dataset", Category: CategoryReporting, Module: "reporting.delta", Fn: reporting.SnapshotDataset,
		Description: "Fingerprint a table for later comparison"},
	{Name: "compare_snapshots", Category: CategoryReporting, Module: "reporting.delta", Fn: reporting.CompareSnapshots,
		Description: "Compare two snapshots"},
	{Name: "delta_report", Category: CategoryReporting, Module: "reporting.delta", Fn: reporting.DeltaReport,
		Description: "Added, removed and changed rows by key"},

	// Utilities
	{Name: "mask_sensitive_fields", Category: CategoryUtilities, Module: "utils.security", Fn: security.MaskSensitiveFields,
		Description: "Replace sensitive values with a mask"},
	{Name: "anonymize_identifiers", Category: CategoryUtilities, Module: "utils.security", Fn: security.AnonymizeIdentifiers,
		Description: "Replace identifiers with salted hashes"},

	// Pipelines
	{Name: "quick_clean", Category: CategoryPipelines, Module: "pipelines.quick_clean", Fn: pipeline.QuickClean,
		Description: "Headers, placeholders, duplicates and fill in one call"},
	{Name: "quick_clean_finance", Category: CategoryPipelines, Module: "pipelines.quick_clean", Fn: pipeline.QuickCleanFinance,
		Description: "QuickClean plus currency, dates and primary key check"},
}

// RegisterBuiltins adds every toolkit function to reg.
func RegisterBuiltins(reg *registry.Registry) {
	for _, e := range builtins {
		reg.MustRegister(e)
	}
}
