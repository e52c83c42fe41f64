// Package text provides the closed (key, language) -> string lookup used for
// every user-facing notice. Unknown languages and unknown keys fall back to
// Russian, the default locale.
package text

import "github.com/spec-kit/support-relay/internal/domain"

// Key identifies a localized message.
type Key string

const (
	KeyWelcome             Key = "welcome"
	KeySelectOption        Key = "select_option"
	KeyBannedUser          Key = "banned_user"
	KeyRegisterFirst       Key = "register_first"
	KeyAlreadyInChat       Key = "already_in_chat"
	KeyExitChatFirst       Key = "exit_chat_first"
	KeyWaitingForStaff     Key = "waiting_for_staff"
	KeyWaitOrCancel        Key = "wait_or_cancel"
	KeyStaffConnected      Key = "staff_connected"
	KeyStoppedByUser       Key = "stopped_by_user"
	KeyStoppedByStaff      Key = "stopped_by_staff"
	KeyStoppedForcibly     Key = "stopped_forcibly"
	KeyNothingToStop       Key = "nothing_to_stop"
	KeyRestartRequired     Key = "restart_required"
	KeyLinkBroken          Key = "link_broken"
	KeySelectLanguage      Key = "select_language"
	KeyLanguageSelected    Key = "language_selected"
	KeyAskQuestion         Key = "ask_question"
	KeyQuestionAccepted    Key = "question_accepted"
	KeyQuestionLabel       Key = "question_label"
	KeyAnswerFromLabel     Key = "answer_from_label"
	KeyAnswerReceivedTitle Key = "answer_received_title"
	KeyMenuHint            Key = "menu_hint"
	KeyFAQTitle            Key = "faq_title"
	KeyFAQPrompt           Key = "faq_prompt"
	KeyFAQNotFound         Key = "faq_not_found"
)

var messages = map[domain.Language]map[Key]string{
	domain.LanguageRU: {
		KeyWelcome:             "Добро пожаловать в службу поддержки! Выберите опцию из меню.",
		KeySelectOption:        "Выберите опцию из меню.",
		KeyBannedUser:          "Вы заблокированы и не можете использовать бота.",
		KeyRegisterFirst:       "Для этого действия необходимо зарегистрироваться.",
		KeyAlreadyInChat:       "Вы уже пытаетесь связаться или на связи. Напишите /stop, чтобы выйти.",
		KeyExitChatFirst:       "Напишите /stop, чтобы выйти из состояния чата.",
		KeyWaitingForStaff:     "Подождите, пожалуйста! Пытаемся связаться. Напишите /stop, чтобы отменить.",
		KeyWaitOrCancel:        "Напишите /stop, чтобы выйти из состояния чата.",
		KeyStaffConnected:      "Сотрудник: %s\n\nС вами связались! Можете писать в чат. Напишите /stop, чтобы завершить.",
		KeyStoppedByUser:       "Связь прервана вами! Напишите /start, чтобы продолжить.",
		KeyStoppedByStaff:      "Связь прервана ответчиком! Напишите /start, чтобы продолжить.",
		KeyStoppedForcibly:     "Связь была прервана принудительно!\n\nНапишите /start, чтобы продолжить.",
		KeyNothingToStop:       "Вы не пытаетесь связаться и не на связи.",
		KeyRestartRequired:     "Связь была прервана ответчиком. Вы можете только начать новый чат.",
		KeyLinkBroken:          "Ошибка: связь была разорвана. Чат закрыт.",
		KeySelectLanguage:      "Пожалуйста, выберите язык: ru / kk / en",
		KeyLanguageSelected:    "Выбран русский язык.",
		KeyAskQuestion:         "Пожалуйста, напишите ваш вопрос.",
		KeyQuestionAccepted:    "Ваш вопрос #%s принят! Ожидайте ответа сотрудников.",
		KeyQuestionLabel:       "Вопрос:",
		KeyAnswerFromLabel:     "Ответ от %s:",
		KeyAnswerReceivedTitle: "Ответ на ваш вопрос #%s:",
		KeyMenuHint:            "Чтобы открыть меню, напишите /start",
		KeyFAQTitle:            "Часто задаваемые вопросы:",
		KeyFAQPrompt:           "Напишите номер вопроса, который подходит для вас.",
		KeyFAQNotFound:         "Вопрос с таким номером не найден. Выберите номер из списка.",
	},
	domain.LanguageKK: {
		KeyWelcome:             "Қолдау қызметіне қош келдіңіз! Мәзірден опцияны таңдаңыз.",
		KeySelectOption:        "Мәзірден опцияны таңдаңыз.",
		KeyBannedUser:          "Сіз блокталдыңыз және ботты қолдана алмайсыз.",
		KeyRegisterFirst:       "Бұл әрекет үшін тіркелу қажет.",
		KeyAlreadyInChat:       "Сіз байланысудасыз немесе байланыстасыз. Шығу үшін /stop жазыңыз.",
		KeyExitChatFirst:       "Сөйлесу режимінен шығу үшін /stop жазыңыз.",
		KeyWaitingForStaff:     "Күте тұрыңыз! Байланысуға тырысудамыз. Болдырмау үшін /stop жазыңыз.",
		KeyWaitOrCancel:        "Сөйлесу режимінен шығу үшін /stop жазыңыз.",
		KeyStaffConnected:      "Қызметкер: %s\n\nСізбен байланыс орнатылды! Чатқа жаза аласыз. Аяқтау үшін /stop жазыңыз.",
		KeyStoppedByUser:       "Байланыс сізбен үзілді! Жалғастыру үшін /start жазыңыз.",
		KeyStoppedByStaff:      "Байланыс жауап берушімен үзілді! Жалғастыру үшін /start жазыңыз.",
		KeyStoppedForcibly:     "Байланыс күштеп үзілді!\n\nЖалғастыру үшін /start жазыңыз.",
		KeyNothingToStop:       "Сіз байланысуда емессіз және байланыста емессіз.",
		KeyRestartRequired:     "Байланыс жауап берушімен үзілді. Тек жаңа чат бастай аласыз.",
		KeyLinkBroken:          "Қате: байланыс үзілді. Чат жабылды.",
		KeySelectLanguage:      "Тілді таңдаңыз: ru / kk / en",
		KeyLanguageSelected:    "Қазақ тілі таңдалды.",
		KeyAskQuestion:         "Сұрағыңызды жазыңыз.",
		KeyQuestionAccepted:    "Сіздің #%s сұрағыңыз қабылданды! Қызметкерлерден жауап күтіңіз.",
		KeyQuestionLabel:       "Сұрақ:",
		KeyAnswerFromLabel:     "%s жауабы:",
		KeyAnswerReceivedTitle: "Сіздің #%s сұрағыңызға жауап:",
		KeyMenuHint:            "Мәзірді ашу үшін /start жазыңыз",
		KeyFAQTitle:            "Жиі қойылатын сұрақтар:",
		KeyFAQPrompt:           "Сізге қолайлы сұрақтың нөмірін жазыңыз.",
		KeyFAQNotFound:         "Мұндай нөмірмен сұрақ табылмады. Тізімнен нөмірді таңдаңыз.",
	},
	domain.LanguageEN: {
		KeyWelcome:             "Welcome to the support desk! Select an option from the menu.",
		KeySelectOption:        "Select an option from the menu.",
		KeyBannedUser:          "You are banned and cannot use the bot.",
		KeyRegisterFirst:       "You need to register before using this action.",
		KeyAlreadyInChat:       "You are already connecting or connected. Type /stop to exit.",
		KeyExitChatFirst:       "Type /stop to exit the chat mode first.",
		KeyWaitingForStaff:     "Please wait! We are trying to connect you. Type /stop to cancel.",
		KeyWaitOrCancel:        "Type /stop to exit the chat mode.",
		KeyStaffConnected:      "Staff member: %s\n\nConnection established! You can now chat. Type /stop to end.",
		KeyStoppedByUser:       "Connection terminated by you! Type /start to continue.",
		KeyStoppedByStaff:      "Connection terminated by the responder! Type /start to continue.",
		KeyStoppedForcibly:     "Connection was forcibly terminated!\n\nType /start to continue.",
		KeyNothingToStop:       "You are not connecting and not connected.",
		KeyRestartRequired:     "Connection was terminated by the responder. You can only start a new chat.",
		KeyLinkBroken:          "Error: the link was broken. The chat is closed.",
		KeySelectLanguage:      "Please select a language: ru / kk / en",
		KeyLanguageSelected:    "English language selected.",
		KeyAskQuestion:         "Please write your question.",
		KeyQuestionAccepted:    "Your question #%s is accepted! Wait for a staff response.",
		KeyQuestionLabel:       "Question:",
		KeyAnswerFromLabel:     "Answer from %s:",
		KeyAnswerReceivedTitle: "Answer to your question #%s:",
		KeyMenuHint:            "To open the menu, type /start",
		KeyFAQTitle:            "Frequently asked questions:",
		KeyFAQPrompt:           "Enter the number of the question that suits you.",
		KeyFAQNotFound:         "Question with this number not found. Choose a number from the list.",
	},
}

// Get returns the message for key in the given language, falling back to
// Russian when the language or the key is unknown.
func Get(key Key, lang domain.Language) string {
	if byKey, ok := messages[lang]; ok {
		if msg, ok := byKey[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[domain.LanguageRU][key]; ok {
		return msg
	}
	return string(key)
}

// ParseLanguage maps user input to a supported language.
func ParseLanguage(s string) (domain.Language, bool) {
	switch s {
	case "ru":
		return domain.LanguageRU, true
	case "kk", "kz":
		return domain.LanguageKK, true
	case "en":
		return domain.LanguageEN, true
	}
	return "", false
}
