package whatsapp

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"cortate/internal/domain"
)

// santiago is the display timezone for all client-facing dates.
var santiago = func() *time.Location {
	loc, err := time.LoadLocation("America/Santiago")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// FormatPhone normalizes a Chilean phone number to the digits-only
// international form wa.me expects. Numbers already prefixed with 56
// pass through; 9-digit mobiles get the country code; 8-digit numbers
// are assumed to be mobiles missing the leading 9.
func FormatPhone(phone string) string {
	digits := onlyDigits(phone)
	if digits == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(digits, "56"):
		return digits
	case strings.HasPrefix(digits, "9") && len(digits) == 9:
		return "56" + digits
	case len(digits) == 8:
		return "569" + digits
	}
	return digits
}

// IsValidChileanPhone accepts mobiles and Santiago landlines, with or
// without the country code.
func IsValidChileanPhone(phone string) bool {
	digits := onlyDigits(phone)
	switch {
	case strings.HasPrefix(digits, "569") && len(digits) == 12:
		return true
	case strings.HasPrefix(digits, "9") && len(digits) == 9:
		return true
	case strings.HasPrefix(digits, "2") && len(digits) == 9:
		return true
	case len(digits) == 8:
		return true
	}
	return false
}

// URL builds a wa.me deep link with a prefilled message. Empty when
// the phone cannot be normalized.
func URL(phone, message string) string {
	formatted := FormatPhone(phone)
	if formatted == "" {
		return ""
	}
	return "https://wa.me/" + formatted + "?text=" + url.QueryEscape(message)
}

// FormatCLP renders whole Chilean pesos with dot thousand separators.
func FormatCLP(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	digits := fmt.Sprintf("%d", amount)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return sign + "$" + b.String()
}

func ServiceDisplayName(s domain.ServiceType) string {
	switch s {
	case domain.ServiceHaircut:
		return "Corte de pelo"
	case domain.ServiceHaircutBeard:
		return "Corte + barba"
	default:
		return string(s)
	}
}

var spanishWeekdays = [...]string{
	"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado",
}

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// FormatDate renders a date in Chilean Spanish, e.g.
// "lunes 2 de marzo de 2026".
func FormatDate(t time.Time) string {
	t = t.In(santiago)
	return fmt.Sprintf("%s %d de %s de %d",
		spanishWeekdays[t.Weekday()], t.Day(), spanishMonths[t.Month()-1], t.Year())
}

// FormatTime renders the local wall-clock time, e.g. "18:30".
func FormatTime(t time.Time) string {
	return t.In(santiago).Format("15:04")
}

// NewBookingMessage is the template sent to the barber when a client
// creates a booking.
func NewBookingMessage(b *domain.Booking, clientName string) string {
	location := "en local"
	if b.LocationType == domain.LocationAtHome {
		location = "a domicilio"
	}

	var sb strings.Builder
	sb.WriteString("*CÓRTATE.CL - Nueva Reserva*\n\n")
	sb.WriteString("¡Tienes una nueva reserva!\n\n")
	fmt.Fprintf(&sb, "• Reserva N°: *%s*\n", b.BookingNumber)
	fmt.Fprintf(&sb, "• Cliente: *%s*\n", clientName)
	fmt.Fprintf(&sb, "• Servicio: *%s*\n", ServiceDisplayName(b.ServiceType))
	fmt.Fprintf(&sb, "• Precio: *%s*\n", FormatCLP(b.Payment.Amount))
	fmt.Fprintf(&sb, "• Modalidad: *%s*\n", location)
	fmt.Fprintf(&sb, "• Fecha: *%s*\n", FormatDate(b.ScheduledFor))
	fmt.Fprintf(&sb, "• Hora: *%s*\n", FormatTime(b.ScheduledFor))

	if b.LocationType == domain.LocationAtHome && b.Address != "" {
		fmt.Fprintf(&sb, "\n*Dirección del servicio:*\n%s\n", b.Address)
		if b.LocationNotes != "" {
			fmt.Fprintf(&sb, "Notas: %s\n", b.LocationNotes)
		}
	}

	sb.WriteString("\nAcepta o rechaza la reserva en la app.")
	return sb.String()
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
