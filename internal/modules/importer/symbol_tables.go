package importer

// equitySymbolsByISIN maps instrument identifiers to NSE trading symbols.
// Read-only configuration; covers the family's known equity universe so
// imports don't depend on the remote search endpoint.
var equitySymbolsByISIN = map[string]string{
	"INE674K01013": "ABCAPITAL.NS",
	"INE885A01032": "ARE&M.NS",
	"INE238A01034": "AXISBANK.NS",
	"INE483A01010": "CENTRALBK.NS",
	"INE059A01026": "CIPLA.NS",
	"INE491A01021": "CUB.NS",
	"INE757A01017": "COSMOFIRST.NS",
	"INE148O01028": "DELHIVERY.NS",
	"INE361B01024": "DIVISLAB.NS",
	"INE089A01031": "DRREDDY.NS",
	"INE302A01020": "EXIDEIND.NS",
	"INE171A01029": "FEDERALBNK.NS",
	"INE860A01027": "HCLTECH.NS",
	"INE040A01034": "HDFCBANK.NS",
	"INE158A01026": "HEROMOTOCO.NS",
	"INE765G01017": "ICICIGI.NS",
	"INE092T01019": "IDFCFIRSTB.NS",
	"INE095A01012": "INDUSINDBK.NS",
	"INE009A01021": "INFY.NS",
	"INE154A01025": "ITC.NS",
	"INE668F01031": "JYOTHYLAB.NS",
	"INE303R01014": "KALYANKJIL.NS",
	"INE614B01018": "KTKBANK.NS",
	"INE498L01015": "L&TFH.NS",
	"INE998I01010": "MHRIL.NS",
	"INE522D01027": "MANAPPURAM.NS",
	"INE893J01029": "MOLDTKPAC.NS",
	"INE414G01012": "MUTHOOTFIN.NS",
	"INE987B01026": "NATCOPHARM.NS",
	"INE347G01014": "PETRONET.NS",
	"INE683A01023": "SOUTHBANK.NS",
	"INE572J01011": "SPANDANA.NS",
	"INE00IN01015": "STOVEKRAFT.NS",
	"INE044A01036": "SUNPHARMA.NS",
	"INE668A01016": "TMB.NS",
	"INE092A01019": "TATACHEM.NS",
	"INE467B01029": "TCS.NS",
	"INE1TAE01010": "TATAMOTORS.NS",
	"INE155A01022": "TATAMTRDVR.NS",
	"INE245A01021": "TATAPOWER.NS",
	"INE081A01020": "TATASTEEL.NS",
	"INE669C01036": "TECHM.NS",
	"INE085J01014": "THANGAMAYL.NS",
	"INE280A01028": "TITAN.NS",
	"INE690A01028": "TTKPRESTIG.NS",
	"INE075A01022": "WIPRO.NS",
	"INE0JO301016": "YATHARTH.NS",
	"INE768C01028": "ZYDUSWELL.NS",
	"INE010B01027": "ZYDUSLIFE.NS",
	"INE296A01032": "BAJFINANCE.NS",
	"INE288B01029": "DEEPAKNTR.NS",
	"INE200M01039": "VBL.NS",
	"INE871C01038": "AVANTIFEED.NS",
	"INE552Z01027": "ABDL.NS",
	"INE0FDU25010": "BIRET.NS",
	"INE041025011": "EMBASSY.NS",
	"INE0GGX23010": "PGINVIT.NS",
	"INE272A01031": "PVR.NS",
	"INE538L01033": "DOMS.NS",
}

// fundSymbolsByISIN maps fund identifiers to quotable symbols. Funds
// rarely have exchange tickers; only the ETF-style ones are listed.
var fundSymbolsByISIN = map[string]string{
	"INF204KB17I5": "GOLDBEES.NS",
	"INF789F01XA0": "0P0000XVU2.BO",
}

// corporateSuffixes are stripped from equity names before deriving a
// symbol guess. Matched anywhere in the uppercased name, longest forms
// first so "NEW EQUITY SHARES" goes before "EQUITY SHARES".
var corporateSuffixes = []string{
	" NEW EQUITY SHARES",
	" EQUITY SHARES",
	" CORPORATION",
	" LIMITED",
	" PRIVATE",
	" S.A.",
	" INDIA",
	" CORP",
	" LTD",
	" PVT",
	" INC",
}
