// Package classifier extracts structured application facts from mailbox message metadata.
//
// Classification is pure and deterministic apart from the clock used for the applied-at fallback.
// All keyword lists and pattern tables live in [Rules], which is passed into [New]; [DefaultRules]
// returns the built-in tables and callers may override any of them.
//
// # Relevance Gate
//
// [Classifier.IsRelevant] checks the lower-cased subject, snippet and sender for any relevance keyword.
// The sync path drops messages failing the gate; the on-demand classify path never applies it.
//
// # Extraction
//
// Employer, role and status each come from an ordered table of rules, tried in sequence with the first
// match winning:
//   - [CompanyRule] : sender domain, sender display name, capitalized subject token, then [models.UnknownCompany]
//   - [RoleRule] : clause after "for/as/position/role", capitalized phrase before a title noun, canonical titles
//   - [StatusRule] : interview, assessment, offer and rejection signals, falling back to applied
//
// The applied-at timestamp is the parsed Date header. When it cannot be parsed the current time is used and
// [models.Classification.AppliedAtEstimated] is set.
//
// # Confidence
//
// [Classifier.Confidence] scores how likely a message is application mail. It is informational and only
// reported by the on-demand path.
package classifier
