package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/importusers/import-service/config"
	"github.com/importusers/import-service/internal/format"
	"github.com/importusers/import-service/internal/reconcile"
)

// ResourceType selects the kind of login details resource added to courses
type ResourceType string

const (
	ResourceNone ResourceType = "none"
	ResourcePage ResourceType = "page"
	ResourceBook ResourceType = "book"
)

func parseResourceType(s string) (ResourceType, error) {
	switch t := ResourceType(strings.ToLower(strings.TrimSpace(s))); t {
	case "", ResourceNone:
		return ResourceNone, nil
	case ResourcePage, ResourceBook:
		return t, nil
	default:
		return "", fmt.Errorf("invalid resource type %q", s)
	}
}

func parsePasswordAction(s string) (format.PasswordAction, error) {
	switch a := format.PasswordAction(strings.ToLower(strings.TrimSpace(s))); a {
	case format.PasswordUnset:
		return format.PasswordFileField, nil
	case format.PasswordCreateNew, format.PasswordFileField, format.PasswordFormField:
		return a, nil
	default:
		return "", fmt.Errorf("invalid password action %q", s)
	}
}

// Options are the caller choices for one run after all layers are merged
type Options struct {
	Reconcile      reconcile.Options
	PasswordAction format.PasswordAction
	PasswordText   string
	SendPassword   reconcile.Choice
	PreviewRows    int
	ResourceType   ResourceType
}

// Option keys, in the normalized form produced by normalizeKey
const (
	keyUploadAction      = "uploadaction"
	keyPasswordAction    = "passwordaction"
	keyPasswordText      = "passwordtext"
	keySendPassword      = "sendpassword"
	keyChangePassword    = "changepassword"
	keyUniqueEmail       = "uniqueemail"
	keyFixUsernames      = "fixusernames"
	keyAuthMethod        = "authmethod"
	keyTimezone          = "timezone"
	keyLanguage          = "language"
	keyCalendarType      = "calendartype"
	keyDescriptionText   = "descriptiontext"
	keyDescriptionFormat = "descriptionformat"
	keyPreviewRows       = "previewrows"
	keyResourceType      = "resourcetype"
)

var keyAliases = map[string]string{
	"lang":        keyLanguage,
	"auth":        keyAuthMethod,
	"calendar":    keyCalendarType,
	"description": keyDescriptionText,
}

// normalizeKey folds upload_action, upload-action and UploadAction together
func normalizeKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	k = strings.NewReplacer("_", "", "-", "").Replace(k)
	if alias, ok := keyAliases[k]; ok {
		return alias
	}
	return k
}

// ConfigLayer returns the configured option defaults as a layer for ResolveOptions
func ConfigLayer(cfg config.ImportConfig) map[string]string {
	return map[string]string{
		keyUploadAction:      cfg.UploadAction,
		keyPasswordAction:    cfg.PasswordAction,
		keyPasswordText:      cfg.PasswordText,
		keySendPassword:      cfg.SendPassword,
		keyChangePassword:    cfg.ChangePassword,
		keyUniqueEmail:       cfg.UniqueEmail,
		keyFixUsernames:      cfg.FixUsernames,
		keyAuthMethod:        cfg.AuthMethod,
		keyTimezone:          cfg.Timezone,
		keyLanguage:          cfg.Language,
		keyCalendarType:      cfg.CalendarType,
		keyDescriptionText:   cfg.DescriptionText,
		keyDescriptionFormat: cfg.DescriptionFormat,
		keyPreviewRows:       strconv.Itoa(cfg.PreviewRows),
		keyResourceType:      cfg.ResourceType,
	}
}

// ResolveOptions merges option layers, later layers overriding earlier ones,
// on top of reconcile.DefaultOptions. Empty values in a layer do not
// override, except for the free-text description and password text. Unknown
// keys are ignored so that format settings may carry unrelated entries.
func ResolveOptions(layers ...map[string]string) (Options, error) {
	merged := make(map[string]string)
	for _, layer := range layers {
		for k, v := range layer {
			k = normalizeKey(k)
			if v == "" && k != keyDescriptionText && k != keyPasswordText {
				continue
			}
			merged[k] = v
		}
	}

	opts := Options{
		Reconcile:    reconcile.DefaultOptions(),
		SendPassword: reconcile.No,
		PreviewRows:  10,
		ResourceType: ResourceNone,
	}
	var err error

	if v, ok := merged[keyUploadAction]; ok {
		if opts.Reconcile.UploadAction, err = reconcile.ParseUploadAction(v); err != nil {
			return Options{}, err
		}
	}
	opts.PasswordAction, err = parsePasswordAction(merged[keyPasswordAction])
	if err != nil {
		return Options{}, err
	}
	opts.PasswordText = merged[keyPasswordText]

	choices := []struct {
		key    string
		target *reconcile.Choice
	}{
		{keySendPassword, &opts.SendPassword},
		{keyChangePassword, &opts.Reconcile.ChangePassword},
		{keyUniqueEmail, &opts.Reconcile.UniqueEmail},
		{keyFixUsernames, &opts.Reconcile.FixUsernames},
	}
	for _, c := range choices {
		v, ok := merged[c.key]
		if !ok {
			continue
		}
		if *c.target, err = reconcile.ParseChoice(v); err != nil {
			return Options{}, fmt.Errorf("%s: %w", c.key, err)
		}
	}

	texts := []struct {
		key    string
		target *string
	}{
		{keyAuthMethod, &opts.Reconcile.AuthMethod},
		{keyTimezone, &opts.Reconcile.Timezone},
		{keyLanguage, &opts.Reconcile.Language},
		{keyCalendarType, &opts.Reconcile.CalendarType},
		{keyDescriptionText, &opts.Reconcile.DescriptionText},
		{keyDescriptionFormat, &opts.Reconcile.DescriptionFormat},
	}
	for _, t := range texts {
		if v, ok := merged[t.key]; ok {
			*t.target = v
		}
	}

	if v, ok := merged[keyPreviewRows]; ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return Options{}, fmt.Errorf("invalid preview rows %q", v)
		}
		opts.PreviewRows = n
	}
	if opts.ResourceType, err = parseResourceType(merged[keyResourceType]); err != nil {
		return Options{}, err
	}
	return opts, nil
}
