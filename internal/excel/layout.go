package excel

// Row bounds of the monthly sheet.
const (
	fixedFirstRow = 4
	fixedLastRow  = 23
	fixedTotalRow = 24

	variableFirstRow = 4
	variableLastRow  = 28
	variableTotalRow = 29
)

const (
	moneyFormat     = "$#,##0"
	headerColor     = "1F4E78"
	cellColor       = "FFFFFF"
	defaultSheet    = "Sheet1"
	noCategory      = "Sin categoria"
	defaultConcept  = "Gasto general"
	defaultCategory = "Otros"
	legacyTitle     = "DETALLE DE GASTOS"
	exampleMarker   = "EJEMPLO"
)

// fixedExpenseOrder lists the keys written first, in this order. Any other
// expense follows in key order.
var fixedExpenseOrder = []string{
	"arriendo",
	"mercado_primera_quincena",
	"mercado_segunda_quincena",
	"servicio_gas",
	"descuento_quincenal",
	"gimnasio",
	"netflix",
	"movistar",
	"youtube_premium",
	"google_drive",
	"gamepass",
	"mercadolibre",
	"hbo_max",
	"pago_app_fitia",
	"sub_facebook_don_j",
}

// variableTemplate pre-fills the concept column of an empty variable table.
var variableTemplate = []string{
	"arreglo cuerda guitarra",
	"envio abono viaje los del sur",
	"monedas madre",
	"visita padre hospital",
	"cable control",
	"abuela almuerzo sabado visita padre hospital",
	"visita padre sabado",
	"almuerzo san valentin",
	"juego parabox nintendo switch",
	"audifonos regalo lina",
	"juego cuphead",
	"compra gasto general",
	"envio padre",
	"mercado fruta primera semana",
	"compra gasto general",
	"prueba bot flutter",
}

var columnWidths = []struct {
	col   string
	width float64
}{
	{"A", 32}, {"B", 18}, {"C", 4}, {"D", 14}, {"E", 30}, {"F", 24},
	{"G", 4}, {"H", 14}, {"I", 32}, {"J", 18}, {"K", 14},
}
