package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var LocalesFS embed.FS

// Message keys used for operator notifications.
const (
	KeyPaymentRecorded = "payment_recorded"
	KeyRecordFailed    = "record_failed"
)

// Translator renders operator-facing messages in one language.
type Translator struct {
	lang         string
	translations map[string]string
}

// NewTranslator reads locales/<lang>.yaml from fsys.
func NewTranslator(fsys fs.FS, lang string) (*Translator, error) {
	data, err := fs.ReadFile(fsys, path.Join("locales", lang+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("read locale %q: %w", lang, err)
	}
	t, err := newTranslatorFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("locale %q: %w", lang, err)
	}
	t.lang = lang
	return t, nil
}

// Load returns the embedded catalog for lang.
func Load(lang string) (*Translator, error) {
	return NewTranslator(LocalesFS, lang)
}

var (
	englishOnce sync.Once
	english     *Translator
)

// English is the embedded default catalog.
func English() *Translator {
	englishOnce.Do(func() {
		t, err := Load("en")
		if err != nil {
			panic(err)
		}
		english = t
	})
	return english
}

func newTranslatorFromBytes(data []byte) (*Translator, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("parse translations: %w", err)
	}
	return &Translator{translations: translations}, nil
}

func (t *Translator) Lang() string { return t.lang }

// T formats the message for key. Unknown keys come back verbatim.
func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}
