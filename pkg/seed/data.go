package seed

// SampleBusinesses is the demo directory content loaded by the seed command.
var SampleBusinesses = []Business{
	{
		Name:        "Bar Centro Cornellà",
		Category:    "restaurantes",
		Description: "Tapas y menú diario a dos pasos de la plaza de la Iglesia.",
		Address:     "Carrer de Mossèn Jacint Verdaguer, 12, Cornellà de Llobregat",
		Phone:       "+34 933 77 12 45",
		ImageURL:    "/images/negocios/bar-centro.jpg",
		Rating:      4.5,
		ReviewCount: 128,
		Featured:    true,
	},
	{
		Name:        "Forn de Pa Almeda",
		Category:    "tiendas",
		Description: "Panadería artesana con coca de recapte los fines de semana.",
		Address:     "Carrer d'Anselm Clavé, 45, Cornellà de Llobregat",
		Phone:       "+34 933 75 98 10",
		ImageURL:    "/images/negocios/forn-almeda.jpg",
		Rating:      4.8,
		ReviewCount: 96,
		Featured:    true,
	},
	{
		Name:        "Ferretería Sant Ildefons",
		Category:    "tiendas",
		Description: "Bricolaje, llaves y pequeñas reparaciones del hogar.",
		Address:     "Avinguda de la República Argentina, 8, Cornellà de Llobregat",
		Phone:       "+34 933 76 40 22",
		ImageURL:    "/images/negocios/ferreteria.jpg",
		Rating:      4.3,
		ReviewCount: 41,
	},
	{
		Name:        "Peluquería Riera",
		Category:    "servicios",
		Description: "Cortes, color y barbería con cita previa online.",
		Address:     "Carrer de la Riera, 23, Cornellà de Llobregat",
		Phone:       "+34 933 77 65 03",
		ImageURL:    "/images/negocios/peluqueria-riera.jpg",
		Rating:      4.6,
		ReviewCount: 73,
	},
	{
		Name:        "Pizzeria Can Mercader",
		Category:    "restaurantes",
		Description: "Pizza al horno de leña junto al parque de Can Mercader.",
		Address:     "Carrer de Sant Ildefons, 30, Cornellà de Llobregat",
		Phone:       "+34 933 74 18 90",
		ImageURL:    "/images/negocios/pizzeria.jpg",
		Rating:      4.2,
		ReviewCount: 210,
		Featured:    true,
	},
	{
		Name:        "Farmàcia Fontsanta",
		Category:    "salud",
		Description: "Farmacia de guardia con servicio de ortopedia.",
		Address:     "Carrer de Fontsanta, 5, Cornellà de Llobregat",
		Phone:       "+34 933 77 01 11",
		ImageURL:    "/images/negocios/farmacia.jpg",
		Rating:      4.7,
		ReviewCount: 58,
	},
	{
		Name:        "Taller Mecànic Gavarra",
		Category:    "servicios",
		Description: "Mecánica general, neumáticos y pre-ITV.",
		Address:     "Carrer de la Gavarra, 77, Cornellà de Llobregat",
		Phone:       "+34 933 75 33 60",
		ImageURL:    "/images/negocios/taller.jpg",
		Rating:      4.4,
		ReviewCount: 37,
	},
	{
		Name:        "Fruites Almeda",
		Category:    "tiendas",
		Description: "Fruta y verdura de proximidad del Baix Llobregat.",
		Address:     "Passeig dels Ferrocarrils Catalans, 140, Cornellà de Llobregat",
		Phone:       "+34 933 76 21 84",
		ImageURL:    "/images/negocios/fruteria.jpg",
		Rating:      4.6,
		ReviewCount: 52,
	},
}
