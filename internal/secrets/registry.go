package secrets

import "regexp"

// Severity classifies how damaging a leaked match of a pattern would be.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
)

// Pattern is one entry in the detection registry.
type Pattern struct {
	Type     string
	Severity Severity
	Regex    *regexp.Regexp

	// Generic marks key/secret/token-style assignment patterns that are
	// suppressed when a placeholder marker appears nearby.
	Generic bool

	// CatchAll marks the long-random-string heuristic, which is subject
	// to entropy, lowercase-hex, and URL-proximity suppression.
	CatchAll bool
}

// DefaultRegistry returns the built-in detection patterns in evaluation
// order: provider-specific credential formats first, then connection
// strings, then generic assignment phrasing, then the catch-all
// heuristic. The returned slice is freshly allocated; callers may
// append but must never mutate the shared regexes.
func DefaultRegistry() []Pattern {
	return []Pattern{
		// --- Cloud provider credentials ---
		{Type: "AWS_ACCESS_KEY_ID", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`\b(?:AKIA|ASIA|ABIA|ACCA|AGPA|AIDA|AROA|ANPA)[0-9A-Z]{16}\b`)},
		{Type: "AWS_SECRET_ACCESS_KEY", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`(?i)aws[_\-. ]{0,3}secret[_\-. ]{0,3}(?:access[_\-. ]{0,3})?key['"]?\s*[:=]\s*['"]?[A-Za-z0-9/+=]{40}`)},
		{Type: "AWS_SESSION_TOKEN", Severity: SeverityHigh,
			Regex: regexp.MustCompile(`(?i)aws[_\-. ]{0,3}session[_\-. ]{0,3}token['"]?\s*[:=]\s*['"]?[A-Za-z0-9/+=]{100,}`)},
		{Type: "GOOGLE_API_KEY", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`\bAIza[0-9A-Za-z\-_]{35}\b`)},
		{Type: "GCP_SERVICE_ACCOUNT", Severity: SeverityHigh,
			Regex: regexp.MustCompile(`"type"\s*:\s*"service_account"`)},
		{Type: "AZURE_STORAGE_ACCOUNT_KEY", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`(?i)AccountKey=[A-Za-z0-9+/=]{64,}`)},
		{Type: "AZURE_SAS_TOKEN", Severity: SeverityMedium,
			Regex: regexp.MustCompile(`[?&]sig=[A-Za-z0-9%+/=]{32,}`)},
		{Type: "DIGITALOCEAN_TOKEN", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`\bdop_v1_[0-9a-f]{64}\b`)},
		{Type: "HEROKU_API_KEY", Severity: SeverityHigh,
			Regex: regexp.MustCompile(`(?i)heroku[a-z0-9_ \-]{0,16}[:=]\s*['"]?[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)},

		// --- Source control and package registries ---
		{Type: "GITHUB_TOKEN", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,255}\b`)},
		{Type: "GITHUB_FINE_GRAINED_PAT", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`\bgithub_pat_[A-Za-z0-9_]{22,255}\b`)},
		{Type: "GITLAB_PAT", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`\bglpat-[A-Za-z0-9\-_]{20,}\b`)},
		{Type: "NPM_TOKEN", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`\bnpm_[A-Za-z0-9]{36}\b`)},
		{Type: "PYPI_TOKEN", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`\bpypi-AgEIcHlwaS5vcmc[A-Za-z0-9\-_]{40,}`)},

		// --- SaaS and messaging ---
		{Type: "SLACK_TOKEN", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9\-]{10,}\b`)},
		{Type: "SLACK_WEBHOOK_URL", Severity: SeverityHigh,
			Regex: regexp.MustCompile(`hooks\.slack\.com/services/T[A-Za-z0-9_]+/B[A-Za-z0-9_]+/[A-Za-z0-9_]+`)},
		{Type: "DISCORD_WEBHOOK_URL", Severity: SeverityHigh,
			Regex: regexp.MustCompile(`discord(?:app)?\.com/api/webhooks/[0-9]+/[A-Za-z0-9_\-]+`)},
		{Type: "TELEGRAM_BOT_TOKEN", Severity: SeverityHigh,
			Regex: regexp.MustCompile(`\b[0-9]{8,10}:AA[A-Za-z0-9_\-]{33}\b`)},
		{Type: "SENDGRID_API_KEY", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`\bSG\.[A-Za-z0-9\-_]{16,32}\.[A-Za-z0-9\-_]{16,64}\b`)},
		{Type: "MAILGUN_API_KEY", Severity: SeverityHigh,
			Regex: regexp.MustCompile(`\bkey-[0-9a-f]{32}\b`)},
		{Type: "MAILCHIMP_API_KEY", Severity: SeverityHigh,
			Regex: regexp.MustCompile(`\b[0-9a-f]{32}-us[0-9]{1,2}\b`)},
		{Type: "TWILIO_API_KEY", Severity: SeverityHigh,
			Regex: regexp.MustCompile(`\bSK[0-9a-f]{32}\b`)},
		{Type: "TWILIO_ACCOUNT_SID", Severity: SeverityMedium,
			Regex: regexp.MustCompile(`\bAC[0-9a-f]{32}\b`)},
		{Type: "FACEBOOK_ACCESS_TOKEN", Severity: SeverityHigh,
			Regex: regexp.MustCompile(`\bEAACEdEose0cBA[A-Za-z0-9]+`)},
		{Type: "SHOPIFY_ACCESS_TOKEN", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`\bshpat_[0-9a-fA-F]{32}\b`)},
		{Type: "SHOPIFY_SHARED_SECRET", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`\bshpss_[0-9a-fA-F]{32}\b`)},

		// --- Payments ---
		{Type: "STRIPE_SECRET_KEY", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`\b[sr]k_live_[A-Za-z0-9]{16,}\b`)},
		{Type: "STRIPE_TEST_KEY", Severity: SeverityMedium,
			Regex: regexp.MustCompile(`\b[sr]k_test_[A-Za-z0-9]{16,}\b`)},
		{Type: "SQUARE_ACCESS_TOKEN", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`\bsq0atp-[A-Za-z0-9\-_]{22}\b`)},
		{Type: "SQUARE_OAUTH_SECRET", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`\bsq0csp-[A-Za-z0-9\-_]{43}\b`)},
		{Type: "BRAINTREE_ACCESS_TOKEN", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`\baccess_token\$production\$[a-z0-9]{16}\$[0-9a-f]{32}\b`)},

		// --- LLM providers ---
		{Type: "OPENAI_API_KEY", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`\bsk-[A-Za-z0-9]{20}T3BlbkFJ[A-Za-z0-9]{20}\b`)},
		{Type: "OPENAI_PROJECT_KEY", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`\bsk-proj-[A-Za-z0-9_\-]{30,}\b`)},
		{Type: "ANTHROPIC_API_KEY", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`\bsk-ant-[A-Za-z0-9\-_]{20,}\b`)},

		// --- Infrastructure secrets ---
		{Type: "VAULT_TOKEN", Severity: SeverityHigh,
			Regex: regexp.MustCompile(`\bhvs\.[A-Za-z0-9_\-]{24,}\b`)},
		{Type: "AGE_SECRET_KEY", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`\bAGE-SECRET-KEY-1[A-Z0-9]{58}\b`)},
		{Type: "PRIVATE_KEY_BLOCK", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH |PGP |ENCRYPTED )?PRIVATE KEY(?: BLOCK)?-----`)},
		{Type: "JWT", Severity: SeverityMedium,
			Regex: regexp.MustCompile(`\beyJ[A-Za-z0-9_\-]{10,}\.[A-Za-z0-9_\-]{10,}\.[A-Za-z0-9_\-]{10,}\b`)},

		// --- Connection strings with embedded credentials ---
		{Type: "POSTGRES_CONNECTION_STRING", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`\bpostgres(?:ql)?://[^\s:@]+:[^\s@]+@\S+`)},
		{Type: "MYSQL_CONNECTION_STRING", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`\bmysql://[^\s:@]+:[^\s@]+@\S+`)},
		{Type: "MONGODB_CONNECTION_STRING", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`\bmongodb(?:\+srv)?://[^\s:@]+:[^\s@]+@\S+`)},
		{Type: "REDIS_CONNECTION_STRING", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`\brediss?://[^\s:@]*:[^\s@]+@\S+`)},
		{Type: "AMQP_CONNECTION_STRING", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`\bamqps?://[^\s:@]+:[^\s@]+@\S+`)},
		{Type: "JDBC_CONNECTION_STRING", Severity: SeverityCritical,
			Regex: regexp.MustCompile(`(?i)\bjdbc:[a-z0-9]+://\S*password=\S+`)},
		{Type: "URL_BASIC_AUTH", Severity: SeverityHigh,
			Regex: regexp.MustCompile(`\bhttps?://[^\s:@/]+:[^\s@/]+@\S+`)},

		// --- Headers ---
		{Type: "AUTHORIZATION_BEARER", Severity: SeverityHigh,
			Regex: regexp.MustCompile(`(?i)authorization:\s*bearer\s+[A-Za-z0-9\-_.=+/]{16,}`)},
		{Type: "AUTHORIZATION_BASIC", Severity: SeverityHigh,
			Regex: regexp.MustCompile(`(?i)authorization:\s*basic\s+[A-Za-z0-9+/=]{16,}`)},

		// --- Generic assignment phrasing (placeholder-suppressed) ---
		{Type: "GENERIC_PASSWORD", Severity: SeverityHigh, Generic: true,
			Regex: regexp.MustCompile(`(?i)\b(?:password|passwd|pwd)['"]?\s*[:=]\s*['"]?[^\s'"]{4,}`)},
		{Type: "GENERIC_SECRET", Severity: SeverityHigh, Generic: true,
			Regex: regexp.MustCompile(`(?i)\b[A-Za-z0-9_]*secret[A-Za-z0-9_]*['"]?\s*[:=]\s*['"]?[^\s'"]{8,}`)},
		{Type: "GENERIC_API_KEY", Severity: SeverityHigh, Generic: true,
			Regex: regexp.MustCompile(`(?i)\bapi[_\-]?key['"]?\s*[:=]\s*['"]?[^\s'"]{8,}`)},
		{Type: "GENERIC_TOKEN", Severity: SeverityHigh, Generic: true,
			Regex: regexp.MustCompile(`(?i)\b[A-Za-z0-9_]*token['"]?\s*[:=]\s*['"]?[^\s'"]{8,}`)},
		{Type: "GENERIC_CREDENTIAL", Severity: SeverityMedium, Generic: true,
			Regex: regexp.MustCompile(`(?i)\bcredentials?['"]?\s*[:=]\s*['"]?[^\s'"]{8,}`)},

		// --- Catch-all long-random-string heuristic (entropy-gated) ---
		{Type: "HIGH_ENTROPY_STRING", Severity: SeverityMedium, CatchAll: true,
			Regex: regexp.MustCompile(`\b[A-Za-z0-9+/_\-]{32,}\b`)},
	}
}
