package profile

// Texts holds the fixed localized strings the core shows on its own behalf.
type Texts struct {
	Welcome         string `json:"welcome"`
	NotUnderstood   string `json:"notUnderstood"`
	CouldNotProcess string `json:"couldNotProcess"`
	Connectivity    string `json:"connectivity"`
	ServerError     string `json:"serverError"`
	Generic         string `json:"generic"`
}

// Profile captures the widget chrome and copy exposed to the frontend.
type Profile struct {
	ID          string `json:"id"`
	Locale      string `json:"locale"`
	Title       string `json:"title"`
	Placeholder string `json:"placeholder"`
	SendLabel   string `json:"sendLabel"`
	OpenLabel   string `json:"openLabel"`
	CloseLabel  string `json:"closeLabel"`
	Texts       Texts  `json:"texts"`
}

// DefaultID is the profile used when none is configured.
const DefaultID = "fsg"

// Seed provides the built-in widget profiles.
func Seed() []Profile {
	return []Profile{
		{
			ID:          DefaultID,
			Locale:      "fr",
			Title:       "CHATBOT FSG",
			Placeholder: "Tapez votre message...",
			SendLabel:   "send",
			OpenLabel:   "Ouvrir le chat",
			CloseLabel:  "Fermer le chat",
			Texts: Texts{
				Welcome:         "bonjour,je suis chatbot fsg ",
				NotUnderstood:   "Désolé, je n'ai pas compris.",
				CouldNotProcess: "Désolé, je n'ai pas pu traiter votre demande.",
				Connectivity:    "Impossible de se connecter au serveur Rasa. Veuillez vérifier que le serveur est en cours d'exécution.",
				ServerError:     "Le serveur Rasa a rencontré une erreur. Veuillez réessayer plus tard.",
				Generic:         "Désolé, une erreur est survenue lors de la communication avec le serveur.",
			},
		},
		{
			ID:          "fsg-en",
			Locale:      "en",
			Title:       "FSG CHATBOT",
			Placeholder: "Type your message...",
			SendLabel:   "send",
			OpenLabel:   "Open chat",
			CloseLabel:  "Close chat",
			Texts: Texts{
				Welcome:         "Hello, I am the FSG chatbot.",
				NotUnderstood:   "Sorry, I did not understand.",
				CouldNotProcess: "Sorry, I could not process your request.",
				Connectivity:    "Unable to reach the Rasa server. Please check that it is running.",
				ServerError:     "The Rasa server encountered an error. Please try again later.",
				Generic:         "Sorry, something went wrong while talking to the server.",
			},
		},
	}
}
