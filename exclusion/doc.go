// Package exclusion decides which stylesheet rules style shared site chrome
// (header, navigation, footer) and removes them from migrated stylesheets.
//
// Input is CSS or SCSS-like text which is frequently malformed. Classification
// goes through up to three tiers: structural rule scanning, line oriented
// brace counting and, as a last resort, keyword line filtering which cannot
// fail. Any selector of a comma separated list matching chrome pattern
// excludes the whole rule.
package exclusion
