// Package i18n holds the translated user-facing strings of the permissions
// service. Keys are the English source strings.
package i18n

import (
	"fmt"
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys.
const (
	MsgAccessDenied       = "You do not have sufficient permissions to access this page."
	MsgNotAuthorized      = "You are not authorized to perform that action"
	MsgPageTitle          = "Push notification permissions"
	MsgMenuTitle          = "Permissions"
	MsgSettingsHeading    = "Push settings"
	MsgSettingsIntro      = "All users with roles checked below will be able to send push notifications from the post editing screen. Users without any of the selected roles will not be able to send push notifications using the OneSignal integration."
	MsgSettingsScope      = "These settings do not control who can send notifications from outside this site (e.g., the OneSignal dashboard)."
	MsgAllowSend          = "Allow to send push notifications"
	MsgSaveButton         = "Save push permissions"
	MsgSaved              = "Push permissions saved."
	MsgInvalidCredentials = "Invalid email or password"
	MsgWelcomeBack        = "Welcome back"
	MsgSignIn             = "Sign in"
	MsgUnknownAdminAction = "Unknown admin action"
	MsgEmail              = "Email"
	MsgPassword           = "Password"
	MsgLogout             = "Logout"
)

// templateMessages names the messages templates render through Message.
var templateMessages = map[string]string{
	"PageTitle":       MsgPageTitle,
	"SettingsHeading": MsgSettingsHeading,
	"SettingsIntro":   MsgSettingsIntro,
	"SettingsScope":   MsgSettingsScope,
	"AllowSend":       MsgAllowSend,
	"SaveButton":      MsgSaveButton,
	"Saved":           MsgSaved,
	"SignIn":          MsgSignIn,
	"Email":           MsgEmail,
	"Password":        MsgPassword,
	"Logout":          MsgLogout,
}

var supported = []language.Tag{
	language.English,
	language.Indonesian,
}

var matcher = language.NewMatcher(supported)

func init() {
	id := language.Indonesian
	for key, text := range map[string]string{
		MsgAccessDenied:       "Anda tidak memiliki izin yang cukup untuk mengakses halaman ini.",
		MsgNotAuthorized:      "Anda tidak berwenang melakukan tindakan tersebut",
		MsgPageTitle:          "Izin notifikasi push",
		MsgMenuTitle:          "Izin",
		MsgSettingsHeading:    "Pengaturan push",
		MsgSettingsIntro:      "Semua pengguna dengan peran yang dicentang di bawah dapat mengirim notifikasi push dari layar penyuntingan pos. Pengguna tanpa salah satu peran tersebut tidak dapat mengirim notifikasi push melalui integrasi OneSignal.",
		MsgSettingsScope:      "Pengaturan ini tidak mengatur siapa yang dapat mengirim notifikasi dari luar situs ini (misalnya dasbor OneSignal).",
		MsgAllowSend:          "Izinkan mengirim notifikasi push",
		MsgSaveButton:         "Simpan izin push",
		MsgSaved:              "Izin push tersimpan.",
		MsgInvalidCredentials: "Email atau password tidak valid",
		MsgWelcomeBack:        "Selamat datang kembali",
		MsgSignIn:             "Masuk",
		MsgUnknownAdminAction: "Aksi admin tidak dikenal",
		MsgEmail:              "Email",
		MsgPassword:           "Kata sandi",
		MsgLogout:             "Keluar",
	} {
		if err := message.SetString(id, key, text); err != nil {
			panic(err)
		}
	}
}

// Printer returns a printer for the best supported match of an
// Accept-Language header value. Unknown or empty values fall back to English.
func Printer(acceptLanguage string) *message.Printer {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return message.NewPrinter(language.English)
	}
	_, idx, _ := matcher.Match(tags...)
	return message.NewPrinter(supported[idx])
}

// FromRequest returns the printer negotiated for r.
func FromRequest(r *http.Request) *message.Printer {
	if r == nil {
		return message.NewPrinter(language.English)
	}
	return Printer(r.Header.Get("Accept-Language"))
}

// T translates key with p, returning key unchanged when p is nil.
func T(p *message.Printer, key string) string {
	if p == nil {
		return key
	}
	return p.Sprintf(key)
}

// Message translates the message registered under name. Unknown names are an
// error so a template cannot drift from the catalog.
func Message(p *message.Printer, name string) (string, error) {
	key, ok := templateMessages[name]
	if !ok {
		return "", fmt.Errorf("i18n: unknown message %q", name)
	}
	return T(p, key), nil
}
