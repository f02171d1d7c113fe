package advisor

import (
	"fmt"
	"sort"
	"strings"
)

// Language is a display language supported by the assistant.
type Language struct {
	Code        string
	Name        string // native name, used in prompts and pickers
	EnglishName string
	Greeting    string

	noSuggestions string
	invalidKey    string
	unauthorized  string
	cannotConnect string
}

var languages = map[string]Language{
	"en": {
		Code:          "en",
		Name:          "English",
		EnglishName:   "English",
		Greeting:      "Hello Farmer Friend! How can I help you today?",
		noSuggestions: "Unable to fetch suggestions",
		invalidKey:    "Error 403: Invalid API key. Please check your API key.",
		unauthorized:  "Error 401: Unauthorized. Please check your API key.",
		cannotConnect: "Error: Unable to connect to server.",
	},
	"kn": {
		Code:          "kn",
		Name:          "ಕನ್ನಡ",
		EnglishName:   "Kannada",
		Greeting:      "ನಮಸ್ಕಾರ ರೈತ ಮಿತ್ರ! ನಾನು ನಿಮಗೆ ಹೇಗೆ ಸಹಾಯ ಮಾಡಬಹುದು?",
		noSuggestions: "ಸಲಹೆಗಳನ್ನು ಪಡೆಯಲು ಸಾಧ್ಯವಾಗಲಿಲ್ಲ",
		invalidKey:    "ದೋಷ 403: ಅಮಾನ್ಯ API ಕೀ. ದಯವಿಟ್ಟು ನಿಮ್ಮ API ಕೀ ಪರಿಶೀಲಿಸಿ.",
		unauthorized:  "ದೋಷ 401: ಅನಧಿಕೃತ. ದಯವಿಟ್ಟು ನಿಮ್ಮ API ಕೀ ಪರಿಶೀಲಿಸಿ.",
		cannotConnect: "ದೋಷ: ಸರ್ವರ್‌ಗೆ ಸಂಪರ್ಕಿಸಲು ಸಾಧ್ಯವಾಗುತ್ತಿಲ್ಲ.",
	},
	"hi": {
		Code:          "hi",
		Name:          "हिंदी",
		EnglishName:   "Hindi",
		Greeting:      "नमस्ते किसान मित्र! मैं आपकी कैसे मदद कर सकता हूं?",
		noSuggestions: "सुझाव प्राप्त करने में असमर्थ",
		invalidKey:    "त्रुटि 403: अमान्य API कुंजी। कृपया अपनी API कुंजी जांचें।",
		unauthorized:  "त्रुटि 401: अनधिकृत। कृपया अपनी API कुंजी जांचें।",
		cannotConnect: "त्रुटि: सर्वर से कनेक्ट नहीं हो पा रहा है।",
	},
	"te": {
		Code:          "te",
		Name:          "తెలుగు",
		EnglishName:   "Telugu",
		Greeting:      "నమస్కారం రైతు మిత్రమా! నేను మీకు ఎలా సహాయం చేయగలను?",
		noSuggestions: "సూచనలను పొందడం సాధ్యం కాలేదు",
		invalidKey:    "లోపం 403: చెల్లని API కీ. దయచేసి మీ API కీని తనిఖీ చేయండి.",
		unauthorized:  "లోపం 401: అనధికారం. దయచేసి మీ API కీని తనిఖీ చేయండి.",
		cannotConnect: "లోపం: సర్వర్‌కు కనెక్ట్ చేయడం సాధ్యం కాలేదు.",
	},
	"ta": {
		Code:          "ta",
		Name:          "தமிழ்",
		EnglishName:   "Tamil",
		Greeting:      "வணக்கம் விவசாயி நண்பரே! நான் உங்களுக்கு எப்படி உதவ முடியும்?",
		noSuggestions: "பரிந்துரைகளைப் பெற முடியவில்லை",
		invalidKey:    "பிழை 403: தவறான API விசை. உங்கள் API விசையை சரிபார்க்கவும்.",
		unauthorized:  "பிழை 401: அங்கீகரிக்கப்படவில்லை. உங்கள் API விசையை சரிபார்க்கவும்.",
		cannotConnect: "பிழை: சர்வரை இணைக்க முடியவில்லை.",
	},
}

// DefaultLanguage is used when a caller does not pick one.
const DefaultLanguage = "en"

// ParseLanguage returns the supported language for code (case-insensitive).
func ParseLanguage(code string) (Language, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		code = DefaultLanguage
	}
	lang, ok := languages[code]
	if !ok {
		return Language{}, fmt.Errorf("unsupported language %q (supported: %s)", code, strings.Join(LanguageCodes(), ", "))
	}
	return lang, nil
}

// LanguageCodes lists the supported codes in sorted order.
func LanguageCodes() []string {
	codes := make([]string, 0, len(languages))
	for code := range languages {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// lookupLanguage never fails: unknown codes get English messages and use
// the code itself as the name.
func lookupLanguage(code string) Language {
	if lang, ok := languages[code]; ok {
		return lang
	}
	lang := languages[DefaultLanguage]
	lang.Code = code
	lang.Name = code
	lang.EnglishName = code
	return lang
}
